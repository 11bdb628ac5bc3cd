package pipeline

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/inventory-mapper/internal/common"
	"github.com/Veraticus/inventory-mapper/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("name\nwidget\n"), 0600))
	return p
}

func TestUploadController_Prepare(t *testing.T) {
	ctrl := NewControllers("http://svc")[StageUpload]
	internal := writeCSV(t, "internal.csv")
	external := writeCSV(t, "external.csv")

	tests := []struct {
		name    string
		in      Inputs
		wantMsg string
	}{
		{name: "no files", in: Inputs{}, wantMsg: MsgSelectBothFiles},
		{name: "internal only", in: Inputs{InternalFile: internal}, wantMsg: MsgSelectBothFiles},
		{name: "external only", in: Inputs{ExternalFile: external}, wantMsg: MsgSelectBothFiles},
		{name: "missing on disk", in: Inputs{InternalFile: internal, ExternalFile: "/nope/x.csv"}, wantMsg: "File not found: /nope/x.csv"},
		{name: "directory", in: Inputs{InternalFile: internal, ExternalFile: t.TempDir()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ctrl.Prepare(tt.in)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			require.ErrorIs(t, err, common.ErrMissingInput)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, vErr.Message)
			}
		})
	}

	req, err := ctrl.Prepare(Inputs{InternalFile: internal, ExternalFile: external})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, EndpointUpload, req.Endpoint)
	assert.Equal(t, remote.PayloadMultipart, req.Kind)
	assert.Equal(t, []remote.FilePart{
		{Field: "file1", Path: internal},
		{Field: "file2", Path: external},
	}, req.Files)
}

func TestUploadController_Interpret(t *testing.T) {
	ctrl := NewControllers("http://svc:5000")[StageUpload]

	out, err := ctrl.Interpret(remote.Response{Body: []byte(`{"message":"Files uploaded","results_file":"a/b/report_final.csv"}`)})
	require.NoError(t, err)
	assert.Equal(t, "Files uploaded", out.Message)
	require.NotNil(t, out.Artifact)
	assert.Equal(t, "report_final.csv", out.Artifact.FileName)
	assert.Equal(t, "http://svc:5000/download/report_final.csv", out.Artifact.DerivedURL)

	out, err = ctrl.Interpret(remote.Response{Body: []byte(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, MsgUploadDone, out.Message)
	assert.Nil(t, out.Artifact)

	out, err = ctrl.Interpret(remote.Response{Body: []byte(`{"results_file":"dir/"}`)})
	require.NoError(t, err)
	assert.Nil(t, out.Artifact, "a path without a file name yields no artifact")
}

func TestMessageControllers(t *testing.T) {
	controllers := NewControllers("http://svc")

	tests := []struct {
		stage    Stage
		endpoint string
		fallback string
	}{
		{StagePreprocess, EndpointPreprocess, MsgPreprocessDone},
		{StageMatch, EndpointMatch, MsgMatchDone},
	}

	for _, tt := range tests {
		t.Run(tt.stage.String(), func(t *testing.T) {
			ctrl := controllers[tt.stage]
			assert.Equal(t, tt.stage, ctrl.Stage())

			req, err := ctrl.Prepare(Inputs{})
			require.NoError(t, err)
			assert.Equal(t, http.MethodPost, req.Method)
			assert.Equal(t, tt.endpoint, req.Endpoint)
			assert.Equal(t, remote.PayloadNone, req.Kind)

			out, err := ctrl.Interpret(remote.Response{Body: []byte(`{"message":"server says hi"}`)})
			require.NoError(t, err)
			assert.Equal(t, "server says hi", out.Message)

			out, err = ctrl.Interpret(remote.Response{Body: []byte(`not json`)})
			require.NoError(t, err)
			assert.Equal(t, tt.fallback, out.Message)
		})
	}
}

func TestViewMappedController_Interpret(t *testing.T) {
	ctrl := NewControllers("http://svc")[StageViewMapped]

	for _, body := range []string{`[]`, `{}`, `null`, ``} {
		out, err := ctrl.Interpret(remote.Response{Body: []byte(body)})
		require.NoError(t, err)
		assert.True(t, out.Empty, body)
		assert.Equal(t, MsgNoMappedProducts, out.Message)
		assert.Empty(t, out.Records)
	}

	out, err := ctrl.Interpret(remote.Response{Body: []byte(`[
		{"External":"A","Internal":"X","Method":"semantic","Semantic_Score":0.9,"Fallback_Internal":NaN,"Fallback_Semantic_Score":null},
		{"External":"B"},
		{"External":"C","Semantic_Score":Infinity,"Fallback_Semantic_Score":-Infinity}
	]`)})
	require.NoError(t, err)
	assert.False(t, out.Empty)
	require.Len(t, out.Records, 3)
	assert.Equal(t, []string{"A", "X", "semantic", "0.9", NotAvailable, NotAvailable}, out.Records[0].Row())
	assert.Equal(t, NotAvailable, out.Records[1].Value(ColumnSemanticScore))
	assert.Equal(t, PositiveInfinity, out.Records[2].Value(ColumnSemanticScore))
	assert.Equal(t, NegativeInfinity, out.Records[2].Value(ColumnFallbackSemanticScore))
	assert.Equal(t, "Loaded 3 mapped products.", out.Message)
}

func TestAccuracyController_Prepare(t *testing.T) {
	ctrl := NewControllers("http://svc")[StageCheckAccuracy]

	_, err := ctrl.Prepare(Inputs{})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, MsgSelectAnswerFile, vErr.Message)

	answers := writeCSV(t, "answers.csv")
	req, err := ctrl.Prepare(Inputs{AnswerFile: answers})
	require.NoError(t, err)
	assert.Equal(t, EndpointCheckAccuracy, req.Endpoint)
	assert.Equal(t, []remote.FilePart{{Field: "file", Path: answers}}, req.Files)
}

func TestAccuracyController_Interpret(t *testing.T) {
	ctrl := NewControllers("http://svc")[StageCheckAccuracy]

	out, err := ctrl.Interpret(remote.Response{Body: []byte(`{
		"accuracy": 87.5,
		"results": [
			{"external":"A","actual_internal":"X","predicted_internal":"X","status":"Correct"},
			{"external":"B","actual_internal":"Y","predicted_internal":null,"status":"Incorrect"}
		]
	}`)})
	require.NoError(t, err)
	require.NotNil(t, out.Accuracy)
	assert.Equal(t, "87.5%", out.Accuracy.ScoreText())
	assert.Equal(t, "Accuracy: 87.5%", out.Message)
	require.Len(t, out.Accuracy.Results, 2)
	assert.True(t, out.Accuracy.Results[0].Status.IsCorrect())
	assert.Equal(t, NotAvailable, out.Accuracy.Results[1].PredictedInternal)
	assert.False(t, out.Accuracy.Results[1].Status.IsCorrect())

	tests := []struct {
		name    string
		body    string
		wantMsg string
		wantIs  error
	}{
		{name: "server error text", body: `{"error":"No mapped data"}`, wantMsg: "No mapped data"},
		{name: "message only", body: `{"message":"run match first"}`, wantMsg: "run match first"},
		{name: "nan score", body: `{"accuracy":NaN,"results":[]}`, wantIs: common.ErrUnexpectedResponse},
		{name: "infinite score", body: `{"accuracy":Infinity,"results":[]}`, wantIs: common.ErrUnexpectedResponse},
		{name: "not json", body: `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ctrl.Interpret(remote.Response{Body: []byte(tt.body)})
			require.Error(t, err)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, err.Error())
			}
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}

func TestFailureMessage(t *testing.T) {
	controllers := NewControllers("http://svc")
	err := errors.New("request failed with status code 500: boom")

	assert.Equal(t, "Error uploading files: request failed with status code 500: boom", controllers[StageUpload].FailureMessage(err))
	assert.Equal(t, "Error during preprocessing: request failed with status code 500: boom", controllers[StagePreprocess].FailureMessage(err))
	assert.Equal(t, "Error checking accuracy: request failed with status code 500: boom", controllers[StageCheckAccuracy].FailureMessage(err))
}
