package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/marketplace/internal/command"
)

// CommandDispatcher runs registered commands.
type CommandDispatcher interface {
	Dispatch(ctx context.Context, name string, params map[string]any) command.Envelope
	Registry() *command.Registry
}

// CommandHandler exposes the command registry over HTTP.
type CommandHandler struct {
	dispatcher CommandDispatcher
}

// NewCommandHandler creates a CommandHandler.
func NewCommandHandler(d CommandDispatcher) *CommandHandler {
	return &CommandHandler{dispatcher: d}
}

// DescribeOutput is the response for GET /v1/commands.
type DescribeOutput struct {
	Body *command.Description
}

// Describe returns the static command registry metadata.
func (h *CommandHandler) Describe(_ context.Context, _ *struct{}) (*DescribeOutput, error) {
	return &DescribeOutput{Body: h.dispatcher.Registry().Describe()}, nil
}

// RunInput is the request for POST /v1/commands/{name}.
type RunInput struct {
	Name string         `path:"name" doc:"Command name, as listed by GET /v1/commands" example:"list-stores"`
	Body map[string]any `            doc:"Flat parameter mapping"                          required:"false"`
}

// RunOutput carries the envelope and the HTTP status derived from it.
type RunOutput struct {
	Status int
	Body   command.Envelope
}

// Run dispatches one command. The body is always an envelope; the status
// code reflects its error_type.
func (h *CommandHandler) Run(ctx context.Context, in *RunInput) (*RunOutput, error) {
	if _, ok := h.dispatcher.Registry().Lookup(in.Name); !ok {
		return nil, huma.Error404NotFound("unknown command: " + in.Name)
	}

	env := h.dispatcher.Dispatch(ctx, in.Name, in.Body)
	return &RunOutput{Status: StatusForEnvelope(env), Body: env}, nil
}

// StatusForEnvelope maps an envelope onto an HTTP status code.
func StatusForEnvelope(env command.Envelope) int {
	if env.OK() {
		return http.StatusOK
	}
	switch env.ErrorType() {
	case command.ErrTypeArgument:
		return http.StatusBadRequest
	case command.ErrTypeValidation:
		return http.StatusUnprocessableEntity
	case command.ErrTypeUnauthorized:
		return http.StatusUnauthorized
	case command.ErrTypeNotFound:
		return http.StatusNotFound
	case command.ErrTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

// OutcomeForStatus is the inverse of StatusForEnvelope: it names the
// envelope outcome a run-command response status stands for.
func OutcomeForStatus(status int) string {
	switch status {
	case http.StatusOK:
		return command.StatusSuccess
	case http.StatusBadRequest:
		return string(command.ErrTypeArgument)
	case http.StatusUnprocessableEntity:
		return string(command.ErrTypeValidation)
	case http.StatusUnauthorized:
		return string(command.ErrTypeUnauthorized)
	case http.StatusNotFound:
		return string(command.ErrTypeNotFound)
	case http.StatusTooManyRequests:
		return string(command.ErrTypeRateLimit)
	case http.StatusBadGateway:
		return string(command.ErrTypeUnknown)
	default:
		return "http_" + strconv.Itoa(status)
	}
}

// RegisterCommandRoutes registers the command routes on the Huma API.
func RegisterCommandRoutes(api huma.API, h *CommandHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "describe-commands",
		Method:      http.MethodGet,
		Path:        "/v1/commands",
		Summary:     "Describe commands",
		Description: "Returns every command with its auth mode parameters, types, and defaults.",
		Tags:        []string{"commands"},
	}, h.Describe)

	huma.Register(api, huma.Operation{
		OperationID: "run-command",
		Method:      http.MethodPost,
		Path:        "/v1/commands/{name}",
		Summary:     "Run a command",
		Description: "Dispatches one marketplace command and returns its envelope.",
		Tags:        []string{"commands"},
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
			http.StatusTooManyRequests,
			http.StatusBadGateway,
		},
	}, h.Run)
}
