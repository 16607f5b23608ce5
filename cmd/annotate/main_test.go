package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/districtlinker/internal/core/model"
	"github.com/agenthands/districtlinker/internal/qanary"
)

func TestSend(t *testing.T) {
	var got qanary.Message
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/annotatequestion", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write(body)
	}))
	defer ts.Close()

	msg := qanary.NewMessage("http://qanary/sparql", "urn:graph:in", "urn:graph:out")
	body, err := send(context.Background(), ts.Client(), ts.URL+"/", msg)
	require.NoError(t, err)
	assert.Contains(t, string(body), "urn:graph:in")
	assert.Equal(t, "urn:graph:out", got.OutGraph())
}

func TestSend_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad message", http.StatusBadRequest)
	}))
	defer ts.Close()

	_, err := send(context.Background(), ts.Client(), ts.URL, qanary.NewMessage("http://qanary/sparql", "urn:graph:in", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestPrintReport(t *testing.T) {
	color.NoColor = true

	m := model.Mention{ExternalID: "http://www.wikidata.org/entity/Q985", TargetSubstring: "Baden-Württemberg", Score: 0.9}
	region, err := model.NewRegionEntity(m, model.State, "08", "Baden-Württemberg")
	require.NoError(t, err)

	report := &model.Report{
		QuestionURI: "http://qanary/question/1",
		Language:    "de",
		Outcomes:    []model.Outcome{{Mention: m, Region: &region, Errors: []error{errors.New("ancestors timed out")}}},
		Skipped:     []error{model.ErrMalformedAnnotation},
		Written:     1,
	}

	var buf bytes.Buffer
	printReport(&buf, report)
	out := buf.String()
	assert.Contains(t, out, "STATE 08 containing \"Baden-Württemberg\"")
	assert.Contains(t, out, "error: ancestors timed out")
	assert.Contains(t, out, "skipped:")
	assert.Contains(t, out, "Written: 1 of 1")
}

func TestMessage_RequiresEndpoint(t *testing.T) {
	endpoint, inGraph, outGraph = "", "urn:graph:in", ""
	_, err := message()
	assert.Error(t, err)

	endpoint = "http://qanary/sparql"
	msg, err := message()
	require.NoError(t, err)
	assert.Equal(t, "urn:graph:in", msg.OutGraph())
}
