package checker

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/reqcheck/pkg/errors"
)

func sampleReport() *Report {
	r := NewReport("/src/demo")
	r.Source = "requirements"
	r.Add("b.py", []Finding{{Filename: "b.py", Line: 3, Col: 0, Code: CodeMissing, Module: "numpy", Message: missingMessage("numpy")}}, nil)
	r.Add("a.py", []Finding{
		{Filename: "a.py", Line: 9, Col: 4, Code: CodeMissing, Module: "yaml", Message: missingMessage("yaml")},
		{Filename: "a.py", Line: 2, Col: 0, Code: CodeMissing, Module: "attr", Message: missingMessage("attr")},
	}, nil)
	r.Add("c.py", nil, errors.New(errors.ErrCodeMaxDepth, "too deep"))
	return r
}

func TestReportSortAndFail(t *testing.T) {
	r := sampleReport()
	r.Sort()

	var got []string
	for _, f := range r.Findings {
		got = append(got, f.String())
	}
	assert.Equal(t, []string{
		"a.py:2:1: I900 'attr' not listed as a requirement",
		"a.py:9:5: I900 'yaml' not listed as a requirement",
		"b.py:3:1: I900 'numpy' not listed as a requirement",
	}, got)
	assert.Equal(t, 3, r.Files)
	assert.Contains(t, r.Errors["c.py"], "too deep")
	assert.True(t, r.Failed())

	_, err := uuid.Parse(r.RunID)
	assert.NoError(t, err)
	assert.False(t, NewReport("/").Failed())
}

func TestReportEncode(t *testing.T) {
	r := sampleReport()
	r.Sort()

	var buf bytes.Buffer
	require.NoError(t, r.Encode(&buf, FormatText))
	assert.Equal(t, 3, bytes.Count(buf.Bytes(), []byte("\n")))

	buf.Reset()
	require.NoError(t, r.Encode(&buf, FormatJSON))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, r.RunID, decoded["run_id"])
	assert.Len(t, decoded["findings"], 3)

	buf.Reset()
	require.NoError(t, r.Encode(&buf, FormatYAML))
	var doc struct {
		Root     string `yaml:"root"`
		Findings []struct {
			Module string `yaml:"module"`
		} `yaml:"findings"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "/src/demo", doc.Root)
	assert.Equal(t, "attr", doc.Findings[0].Module)

	err := r.Encode(&buf, "xml")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestEmptyReportEncodesEmptyList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReport("/").Encode(&buf, FormatJSON))
	assert.Contains(t, buf.String(), `"findings": []`)
}
