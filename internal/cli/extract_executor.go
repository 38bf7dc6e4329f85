package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/temirov/repo2txt/internal/acquire"
	"github.com/temirov/repo2txt/internal/config"
	"github.com/temirov/repo2txt/internal/pipeline"
	"github.com/temirov/repo2txt/internal/services/commandserver"
	"github.com/temirov/repo2txt/internal/types"
)

const (
	warningFormat           = "%s: %s"
	decodeExtractErrorLabel = "decode extract request"
	sourceRequiredMessage   = "source is required"
)

type extractRequest struct {
	Source     string   `json:"source"`
	Branch     string   `json:"branch"`
	Method     string   `json:"method"`
	Ignore     []string `json:"ignore"`
	IgnoreFile string   `json:"ignoreFile"`
}

// newExtractExecutor runs extraction requests against the configured defaults.
// The document is always returned in the response body.
func newExtractExecutor(state *commandState) commandserver.CommandExecutor {
	return commandserver.CommandExecutorFunc(func(ctx context.Context, request commandserver.CommandRequest) (commandserver.CommandResponse, error) {
		payload, decodeErr := decodeExtractRequest(request.Payload)
		if decodeErr != nil {
			return commandserver.CommandResponse{}, commandserver.NewCommandExecutionError(http.StatusBadRequest, decodeErr)
		}
		defaults := state.configuration.Extract
		method := strings.ToLower(strings.TrimSpace(payload.Method))
		if method == "" {
			method = defaults.Method
		}
		if method != "" && method != types.MethodGit && method != types.MethodArchive {
			return commandserver.CommandResponse{}, commandserver.NewCommandExecutionError(
				http.StatusBadRequest,
				fmt.Errorf(invalidMethodMessageFormat, method, types.MethodGit, types.MethodArchive),
			)
		}

		var documentBuffer bytes.Buffer
		pipelineRequest := pipeline.Request{
			Source:      payload.Source,
			Branch:      payload.Branch,
			Method:      method,
			IgnoreFile:  payload.IgnoreFile,
			Ignore:      append(append([]string{}, defaults.Ignore...), payload.Ignore...),
			Writer:      &documentBuffer,
			Workers:     config.DefaultWorkers,
			GitHubToken: state.dependencies.GitHubToken,
			Acquirers:   state.dependencies.Acquirers,
			Logger:      state.dependencies.Logger,
		}
		if defaults.Workers != nil {
			pipelineRequest.Workers = *defaults.Workers
		}
		if defaults.MaxFileBytes != nil {
			pipelineRequest.MaxFileBytes = *defaults.MaxFileBytes
		}
		if defaults.PreserveLineEndings != nil {
			pipelineRequest.PreserveLineEndings = *defaults.PreserveLineEndings
		}

		result, runErr := pipeline.Run(ctx, pipelineRequest)
		if runErr != nil {
			return commandserver.CommandResponse{}, commandserver.NewCommandExecutionError(extractStatusCode(runErr), runErr)
		}
		warnings := make([]string, 0, len(result.Failures))
		for _, failure := range result.Failures {
			warnings = append(warnings, fmt.Sprintf(warningFormat, failure.Path, failure.Result.Reason))
		}
		return commandserver.CommandResponse{
			Output:   documentBuffer.String(),
			Format:   types.FormatText,
			Warnings: warnings,
		}, nil
	})
}

func decodeExtractRequest(raw json.RawMessage) (extractRequest, error) {
	var payload extractRequest
	if len(bytes.TrimSpace(raw)) > 0 {
		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			return extractRequest{}, fmt.Errorf("%s: %w", decodeExtractErrorLabel, err)
		}
	}
	payload.Source = strings.TrimSpace(payload.Source)
	if payload.Source == "" {
		return extractRequest{}, errors.New(sourceRequiredMessage)
	}
	return payload, nil
}

func extractStatusCode(err error) int {
	var ignoreConfigError *config.IgnoreConfigError
	switch {
	case acquire.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, acquire.ErrUnsupportedSource), errors.As(err, &ignoreConfigError):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
