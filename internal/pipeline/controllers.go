package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strings"

	"github.com/Veraticus/inventory-mapper/internal/common"
	"github.com/Veraticus/inventory-mapper/internal/remote"
)

// Service endpoints.
const (
	EndpointUpload        = "/upload"
	EndpointPreprocess    = "/preprocess"
	EndpointMatch         = "/match"
	EndpointViewMapped    = "/view-mapped"
	EndpointCheckAccuracy = "/check-accuracy"
)

// Messages shown to the operator.
const (
	MsgSelectBothFiles  = "Please select both CSV files."
	MsgSelectAnswerFile = "Please upload a CSV file."
	MsgUploadDone       = "Files uploaded successfully."
	MsgPreprocessDone   = "Preprocessing completed."
	MsgMatchDone        = "Product mapping completed successfully."
	MsgNoMappedProducts = "No mapped products found."
	MsgAccuracyNoScore  = "response did not include an accuracy score"
	MsgRequestCancelled = "request cancelled"
)

// Inputs carries the operator's file selections. Each stage reads only the
// fields it needs.
type Inputs struct {
	InternalFile string
	ExternalFile string
	AnswerFile   string
}

// ValidationError is a local precondition failure. It never reaches the
// network layer.
type ValidationError struct {
	Message string
	Stage   Stage
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return common.ErrMissingInput
}

// Controller binds one stage's request shape and response mapping.
type Controller interface {
	Stage() Stage
	// Prepare validates inputs and builds the request. A *ValidationError
	// means no request may be issued.
	Prepare(in Inputs) (remote.Request, error)
	// Interpret maps a 2xx response into view data.
	Interpret(resp remote.Response) (Outcome, error)
	// FailureMessage renders a transport or interpretation failure.
	FailureMessage(err error) string
}

// NewControllers returns the controller for every stage. downloadBase is the
// service root used to derive artifact links.
func NewControllers(downloadBase string) map[Stage]Controller {
	return map[Stage]Controller{
		StageUpload:        &uploadController{stageErrors: stageErrors{"Error uploading files"}, downloadBase: downloadBase},
		StagePreprocess:    &messageController{stageErrors: stageErrors{"Error during preprocessing"}, stage: StagePreprocess, endpoint: EndpointPreprocess, fallback: MsgPreprocessDone},
		StageMatch:         &messageController{stageErrors: stageErrors{"Error during product mapping"}, stage: StageMatch, endpoint: EndpointMatch, fallback: MsgMatchDone},
		StageViewMapped:    &viewMappedController{stageErrors: stageErrors{"Error fetching mapped products"}},
		StageCheckAccuracy: &accuracyController{stageErrors: stageErrors{"Error checking accuracy"}},
	}
}

type stageErrors struct {
	prefix string
}

func (e stageErrors) FailureMessage(err error) string {
	return e.prefix + ": " + err.Error()
}

// requireFile checks that a file was chosen and exists locally.
func requireFile(stage Stage, path, missingMsg string) error {
	if strings.TrimSpace(path) == "" {
		return &ValidationError{Stage: stage, Message: missingMsg}
	}
	info, err := os.Stat(path)
	if err != nil {
		return &ValidationError{Stage: stage, Message: fmt.Sprintf("File not found: %s", path)}
	}
	if info.IsDir() {
		return &ValidationError{Stage: stage, Message: fmt.Sprintf("Not a file: %s", path)}
	}
	return nil
}

type messageResponse struct {
	Message string `json:"message"`
}

// decodeMessage returns the "message" field or fallback when the body has
// none.
func decodeMessage(body []byte, fallback string) string {
	var payload messageResponse
	if err := remote.DecodeJSON(body, &payload); err != nil || payload.Message == "" {
		return fallback
	}
	return payload.Message
}

type uploadController struct {
	stageErrors
	downloadBase string
}

func (c *uploadController) Stage() Stage { return StageUpload }

func (c *uploadController) Prepare(in Inputs) (remote.Request, error) {
	if strings.TrimSpace(in.InternalFile) == "" || strings.TrimSpace(in.ExternalFile) == "" {
		return remote.Request{}, &ValidationError{Stage: StageUpload, Message: MsgSelectBothFiles}
	}
	if err := requireFile(StageUpload, in.InternalFile, MsgSelectBothFiles); err != nil {
		return remote.Request{}, err
	}
	if err := requireFile(StageUpload, in.ExternalFile, MsgSelectBothFiles); err != nil {
		return remote.Request{}, err
	}

	return remote.Request{
		Method:   http.MethodPost,
		Endpoint: EndpointUpload,
		Kind:     remote.PayloadMultipart,
		Files: []remote.FilePart{
			{Field: "file1", Path: in.InternalFile},
			{Field: "file2", Path: in.ExternalFile},
		},
	}, nil
}

func (c *uploadController) Interpret(resp remote.Response) (Outcome, error) {
	var payload struct {
		Message     string `json:"message"`
		ResultsFile string `json:"results_file"`
	}
	if err := remote.DecodeJSON(resp.Body, &payload); err != nil {
		slog.Debug("Upload response was not JSON", "error", err)
	}

	out := Outcome{Message: payload.Message}
	if out.Message == "" {
		out.Message = MsgUploadDone
	}

	if payload.ResultsFile != "" {
		artifact, err := ResolveArtifact(payload.ResultsFile, c.downloadBase)
		if err != nil {
			slog.Warn("Ignoring unusable results file", "path", payload.ResultsFile, "error", err)
		} else {
			out.Artifact = &artifact
		}
	}

	return out, nil
}

// messageController serves stages that only report a message.
type messageController struct {
	stageErrors
	endpoint string
	fallback string
	stage    Stage
}

func (c *messageController) Stage() Stage { return c.stage }

func (c *messageController) Prepare(Inputs) (remote.Request, error) {
	return remote.Request{
		Method:   http.MethodPost,
		Endpoint: c.endpoint,
		Kind:     remote.PayloadNone,
	}, nil
}

func (c *messageController) Interpret(resp remote.Response) (Outcome, error) {
	return Outcome{Message: decodeMessage(resp.Body, c.fallback)}, nil
}

type viewMappedController struct {
	stageErrors
}

func (c *viewMappedController) Stage() Stage { return StageViewMapped }

func (c *viewMappedController) Prepare(Inputs) (remote.Request, error) {
	return remote.Request{
		Method:   http.MethodGet,
		Endpoint: EndpointViewMapped,
		Kind:     remote.PayloadNone,
	}, nil
}

func (c *viewMappedController) Interpret(resp remote.Response) (Outcome, error) {
	var payload any
	if err := remote.DecodeJSON(resp.Body, &payload); err != nil {
		slog.Debug("View-mapped response was not JSON", "error", err)
	}

	items, ok := payload.([]any)
	if !ok || len(items) == 0 {
		return Outcome{Message: MsgNoMappedProducts, Empty: true}, nil
	}

	records := make([]MappedProductRecord, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			// A scalar row still occupies a line, with every field N/A.
			obj = map[string]any{}
		}
		records = append(records, MappedProductRecord(obj))
	}

	return Outcome{
		Message: fmt.Sprintf("Loaded %d mapped products.", len(records)),
		Records: records,
	}, nil
}

type accuracyController struct {
	stageErrors
}

func (c *accuracyController) Stage() Stage { return StageCheckAccuracy }

func (c *accuracyController) Prepare(in Inputs) (remote.Request, error) {
	if err := requireFile(StageCheckAccuracy, in.AnswerFile, MsgSelectAnswerFile); err != nil {
		return remote.Request{}, err
	}

	return remote.Request{
		Method:   http.MethodPost,
		Endpoint: EndpointCheckAccuracy,
		Kind:     remote.PayloadMultipart,
		Files:    []remote.FilePart{{Field: "file", Path: in.AnswerFile}},
	}, nil
}

func (c *accuracyController) Interpret(resp remote.Response) (Outcome, error) {
	var payload struct {
		Accuracy *json.Number     `json:"accuracy"`
		Message  string           `json:"message"`
		Error    string           `json:"error"`
		Results  []map[string]any `json:"results"`
	}
	if err := remote.DecodeJSON(resp.Body, &payload); err != nil {
		return Outcome{}, err
	}

	if payload.Accuracy == nil {
		switch {
		case payload.Error != "":
			return Outcome{}, errors.New(payload.Error)
		case payload.Message != "":
			return Outcome{}, errors.New(payload.Message)
		default:
			return Outcome{}, fmt.Errorf("%w: %s", common.ErrUnexpectedResponse, MsgAccuracyNoScore)
		}
	}

	score, err := remote.NumberValue(*payload.Accuracy)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", common.ErrUnexpectedResponse, err)
	}
	if math.IsInf(score, 0) {
		return Outcome{}, fmt.Errorf("%w: accuracy score %s is not finite", common.ErrUnexpectedResponse, FormatValue(score))
	}

	report := AccuracyReport{
		Accuracy: score,
		Results:  make([]AccuracyRow, 0, len(payload.Results)),
	}
	for _, row := range payload.Results {
		report.Results = append(report.Results, AccuracyRow{
			External:          FormatValue(row["external"]),
			ActualInternal:    FormatValue(row["actual_internal"]),
			PredictedInternal: FormatValue(row["predicted_internal"]),
			Status:            MatchStatus(FormatValue(row["status"])),
		})
	}

	return Outcome{
		Message:  "Accuracy: " + report.ScoreText(),
		Accuracy: &report,
	}, nil
}
