package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forcestatus/internal/forcestatus"
)

const samplePipeline = `
agent: release
env:
  BRANCH: main
stages:
  - name: build
    steps:
      - run: echo building
  - name: gate
    steps:
      - force:
          result: SUCCESS
          condition: '${BRANCH} != "main"'
          useCondition: true
  - name: deploy
    steps:
      - run: echo deploying
`

func TestParsePipeline(t *testing.T) {
	p, err := ParsePipeline([]byte(samplePipeline))
	require.NoError(t, err)

	assert.Equal(t, "release", p.Agent)
	assert.Equal(t, map[string]string{"BRANCH": "main"}, p.Env)
	assert.False(t, p.Flyweight)
	require.Len(t, p.Stages, 3)
	assert.Equal(t, "echo building", p.Stages[0].Steps[0].Run)
	assert.Equal(t, &forcestatus.Config{
		Result:       "SUCCESS",
		Condition:    `${BRANCH} != "main"`,
		UseCondition: true,
	}, p.Stages[1].Steps[0].Force)
	assert.Equal(t, "force SUCCESS", p.Stages[1].Steps[0].Name())
}

func TestParsePipelineInvalid(t *testing.T) {
	tests := map[string]string{
		"no stages":  "agent: x\n",
		"unnamed":    "stages:\n  - steps:\n      - run: ls\n",
		"empty step": "stages:\n  - name: a\n    steps:\n      - {}\n",
		"both":       "stages:\n  - name: a\n    steps:\n      - run: ls\n        force: {result: FAILURE}\n",
		"bad result": "stages:\n  - name: a\n    steps:\n      - force: {result: GREEN}\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePipeline([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidPipeline)
		})
	}

	_, err := ParsePipeline([]byte("stages: [unclosed"))
	assert.Error(t, err)
}

func TestBadResultIsConfigurationError(t *testing.T) {
	_, err := ParsePipeline([]byte("stages:\n  - name: a\n    steps:\n      - force: {result: GREEN}\n"))
	assert.ErrorIs(t, err, forcestatus.ErrConfiguration)
}

func TestLoadPipeline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePipeline), 0644))

	p, err := LoadPipeline(path)
	require.NoError(t, err)
	assert.Len(t, p.Stages, 3)

	_, err = LoadPipeline(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestGetNextSteps(t *testing.T) {
	p, err := ParsePipeline([]byte(samplePipeline))
	require.NoError(t, err)

	s := NewScheduler()
	assert.Len(t, s.GetNextSteps(p, 0), 1)
	assert.Nil(t, s.GetNextSteps(p, 3))
	assert.Nil(t, s.GetNextSteps(p, -1))
}
