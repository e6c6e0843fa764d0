package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFileLogger_Honours_Level(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer

	// Given a logger at DEBUG
	logger := newFileLogger(&out, "DEBUG")

	// When logging at debug
	logger.Debug("shown")

	// Then the line is written, as JSON
	req.Contains(out.String(), `"msg":"shown"`)
	req.Contains(out.String(), `"level":"DEBUG"`)
}

func TestNewFileLogger_Unknown_Level_Falls_Back_To_Info(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer

	// Given an unknown level
	logger := newFileLogger(&out, "LOUD")

	// When logging at debug and info
	logger.Debug("hidden")
	logger.Info("shown")

	// Then INFO is used
	req.NotContains(out.String(), "hidden")
	req.Contains(out.String(), `"msg":"shown"`)
}
