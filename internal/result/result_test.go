package result

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	for _, r := range All() {
		parsed, err := Parse(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Result
		wantErr bool
	}{
		{in: "SUCCESS", want: Success},
		{in: " NOT_BUILT\n", want: NotBuilt},
		{in: "ABORTED", want: Aborted},
		{in: "success", wantErr: true},
		{in: "", wantErr: true},
		{in: "PASSED", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknown)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrdering(t *testing.T) {
	assert.True(t, Failure.IsWorseThan(Unstable))
	assert.True(t, Aborted.IsWorseThan(NotBuilt))
	assert.False(t, Success.IsWorseThan(Success))
	assert.True(t, Success.IsBetterThan(Unstable))

	assert.Equal(t, Failure, Success.Combine(Failure))
	assert.Equal(t, Failure, Failure.Combine(Unstable))
	assert.Equal(t, Aborted, Aborted.Combine(Aborted))
}

func TestCompleted(t *testing.T) {
	assert.True(t, Success.Completed())
	assert.True(t, Unstable.Completed())
	assert.False(t, Failure.Completed())
	assert.False(t, NotBuilt.Completed())
	assert.False(t, Aborted.Completed())
}

func TestJSON(t *testing.T) {
	b, err := json.Marshal(map[string]Result{"result": NotBuilt})
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":"NOT_BUILT"}`, string(b))

	var out struct {
		Result Result `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"result":"UNSTABLE"}`), &out))
	assert.Equal(t, Unstable, out.Result)

	assert.Error(t, json.Unmarshal([]byte(`{"result":"GREEN"}`), &out))

	_, err = Result(42).MarshalText()
	assert.ErrorIs(t, err, ErrUnknown)
	assert.Equal(t, "Result(42)", Result(42).String())
}
