package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaskFileSingleDocument(t *testing.T) {
	reqs, err := parseTaskFile([]byte(`
title: Write report
priority: high
dueDate: "2024-12-31"
`))
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Write report", reqs[0].Title)
	require.NotNil(t, reqs[0].Priority)
	assert.Equal(t, "high", *reqs[0].Priority)
	require.NotNil(t, reqs[0].DueDate)
	assert.Equal(t, "2024-12-31", *reqs[0].DueDate)
	assert.Nil(t, reqs[0].Status)
}

func TestParseTaskFileListAndMultiDoc(t *testing.T) {
	reqs, err := parseTaskFile([]byte(`
- title: one
- title: two
  status: in-progress
---
title: three
description: from a second document
`))
	require.NoError(t, err)
	require.Len(t, reqs, 3)
	assert.Equal(t, []string{"one", "two", "three"}, []string{reqs[0].Title, reqs[1].Title, reqs[2].Title})
	assert.Equal(t, "in-progress", *reqs[1].Status)
	assert.Equal(t, "from a second document", *reqs[2].Description)
}

func TestParseTaskFileErrors(t *testing.T) {
	tests := map[string]string{
		"empty":         "",
		"scalar":        "just a string",
		"missing title": "- priority: low",
		"bad yaml":      "title: [unclosed",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseTaskFile([]byte(input))
			assert.Error(t, err)
		})
	}
}

func TestBuildCreateRequest(t *testing.T) {
	_, err := buildCreateRequest(&createCmdOptions{}, nil)
	require.Error(t, err)

	req, err := buildCreateRequest(&createCmdOptions{priority: "low"}, []string{"Buy", "milk"})
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", req.Title)
	assert.Equal(t, "low", *req.Priority)
	assert.Nil(t, req.Description)
	assert.Nil(t, req.DueDate)
}
