package handlers

import "github.com/urgentline/sla-server/pkg/client"

func NewResponse(messages ...string) client.Response {
	return client.Response{
		Messages: messages,
	}
}
