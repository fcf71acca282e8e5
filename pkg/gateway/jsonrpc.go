package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"

	"github.com/morezero/dialect-gateway/pkg/dispatcher"
	"github.com/morezero/dialect-gateway/pkg/wrapper"
)

const jsonrpcLogPrefix = "gateway:jsonrpc"

// JSONRPCServiceName is the service prefix of every bridge method.
const JSONRPCServiceName = "Gateway"

// InvokeArgs are the params of Gateway.Invoke.
type InvokeArgs struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params,omitempty"`
}

// InvokeReply is the result of Gateway.Invoke.
type InvokeReply struct {
	Result any `json:"result"`
}

// TranscodeArgs are the params of Gateway.Transcode: a dialect request as
// it would arrive over HTTP.
type TranscodeArgs struct {
	Type      string         `json:"type,omitempty"`
	SessionID string         `json:"sessionId,omitempty"`
	Items     map[string]any `json:"items"`
}

// TranscodeReply carries the dialect payloads for a Transcode call.
type TranscodeReply struct {
	Payloads []wrapper.Payload `json:"payloads"`
}

// GatewayService is the JSON-RPC 2.0 face of the dispatcher.
type GatewayService struct {
	registry       *wrapper.Registry
	dispatcher     *dispatcher.Dispatcher
	defaultDialect string
	requestTimeout time.Duration
}

// Invoke runs one canonical call and returns its result. A failed call is a
// JSON-RPC server error whose data holds the fault detail, if any.
func (s *GatewayService) Invoke(r *http.Request, args *InvokeArgs, reply *InvokeReply) error {
	if args.Method == "" {
		return &json2.Error{Code: json2.E_BAD_PARAMS, Message: "method is required"}
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	callErr, result := s.dispatcher.Invoke(ctx, wrapper.Call{Name: args.Method, Arguments: args.Params})
	if callErr != nil {
		return callError(callErr)
	}
	reply.Result = result
	return nil
}

// Transcode runs a full dialect request through the pipeline.
func (s *GatewayService) Transcode(r *http.Request, args *TranscodeArgs, reply *TranscodeReply) error {
	if args.SessionID == "" {
		args.SessionID = r.Header.Get(HeaderSessionID)
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	resp := s.dispatcher.Handle(ctx, s.registry, s.defaultDialect, &dispatcher.InvokeRequest{
		Type:      args.Type,
		SessionID: args.SessionID,
		Items:     args.Items,
	})
	if !resp.Ok {
		return &json2.Error{Code: json2.E_SERVER, Message: resp.Error.Message, Data: resp.Error}
	}
	reply.Payloads = resp.Payloads
	return nil
}

func callError(callErr any) *json2.Error {
	switch e := callErr.(type) {
	case *wrapper.Fault:
		return &json2.Error{Code: json2.E_SERVER, Message: e.Message, Data: e.Detail}
	case string:
		return &json2.Error{Code: json2.E_SERVER, Message: e}
	default:
		return &json2.Error{Code: json2.E_SERVER, Message: fmt.Sprint(e)}
	}
}

// NewJSONRPCHandler returns the /jsonrpc handler backed by the same registry
// and dispatcher as h.
func NewJSONRPCHandler(h *Handler) (http.Handler, error) {
	s := rpc.NewServer()
	s.RegisterCodec(json2.NewCodec(), "application/json")

	svc := &GatewayService{
		registry:       h.registry,
		dispatcher:     h.dispatcher,
		defaultDialect: h.defaultDialect,
		requestTimeout: h.requestTimeout,
	}
	if err := s.RegisterService(svc, JSONRPCServiceName); err != nil {
		return nil, fmt.Errorf("%s - failed to register service: %w", jsonrpcLogPrefix, err)
	}
	return s, nil
}
