package log

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const program = "Gnr2rm2snYcHq8DXm6zVswDVnE8PjTFCnyQBnJSyd2X2"

func TestParse(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name string
		line string
		want LogType
	}{
		{"invoke", "Program " + program + " invoke [1]", LogTypeInvoke},
		{"success", "Program " + program + " success", LogTypeSuccess},
		{"failed", "Program " + program + " failed: custom program error: 0x1773", LogTypeFailed},
		{"data", "Program data: AQID", LogTypeData},
		{"log", "Program log: Instruction: DepositNative", LogTypeLog},
		{"compute", "Program " + program + " consumed 2000 of 200000 compute units", LogTypeComputeUnits},
		{"unknown", "something else", LogTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Parse(tt.line).Type)
		})
	}
}

func TestParseFailure(t *testing.T) {
	p := NewParser()

	parsed := p.Parse("Program " + program + " failed: custom program error: 0x1773")
	assert.Equal(t, program, parsed.ProgramID)
	require.NotNil(t, parsed.ErrorCode)
	assert.Equal(t, uint32(6003), *parsed.ErrorCode)

	parsed = p.Parse("Program " + program + " failed: insufficient funds")
	assert.Equal(t, "insufficient funds", parsed.Reason)
	assert.Nil(t, parsed.ErrorCode)
}

func TestExtract(t *testing.T) {
	p := NewParser()
	payload := []byte{1, 2, 3, 4}
	logs := []string{
		"Program " + program + " invoke [1]",
		"Program log: Instruction: CreatePool",
		"Program data: " + base64.StdEncoding.EncodeToString(payload),
		"Program " + program + " success",
		"Program " + program + " invoke [1]",
		"Program log: Instruction: SwapNativeForToken",
		"Program " + program + " failed: custom program error: 0x1778",
	}

	assert.Equal(t, [][]byte{payload}, p.ExtractProgramData(logs))
	assert.Equal(t, []string{"CreatePool", "SwapNativeForToken"}, p.ExtractInstructions(logs))

	failure := p.Failure(logs)
	require.NotNil(t, failure)
	assert.Equal(t, uint32(0x1778), *failure.ErrorCode)
	assert.Nil(t, p.Failure(logs[:4]))
}

func TestInvocations(t *testing.T) {
	p := NewParser()
	const system = "11111111111111111111111111111111"
	logs := []string{
		"Program " + system + " invoke [1]",
		"Program " + system + " success",
		"Program " + program + " invoke [1]",
		"Program log: Instruction: DepositToken",
		"Program " + system + " invoke [2]",
		"Program data: AQ==",
		"Program " + system + " success",
		"Program data: Ag==",
		"Program " + program + " success",
		"Program " + program + " invoke [1]",
		"Program log: Instruction: PausePool",
		"Program " + program + " failed: custom program error: 0x1772",
	}

	invs := p.Invocations(logs)
	require.Len(t, invs, 4)

	assert.Equal(t, system, invs[0].ProgramID)
	assert.Equal(t, 0, invs[0].Index)
	assert.Empty(t, invs[0].Data)

	assert.Equal(t, program, invs[1].ProgramID)
	assert.Equal(t, 1, invs[1].Index)
	assert.Equal(t, "DepositToken", invs[1].Instruction)
	assert.Equal(t, [][]byte{{2}}, invs[1].Data)
	assert.Nil(t, invs[1].Failure)

	assert.Equal(t, system, invs[2].ProgramID)
	assert.Equal(t, 1, invs[2].Index)
	assert.Equal(t, 2, invs[2].Depth)
	assert.Equal(t, [][]byte{{1}}, invs[2].Data)

	assert.Equal(t, 2, invs[3].Index)
	assert.Equal(t, "PausePool", invs[3].Instruction)
	require.NotNil(t, invs[3].Failure)
	assert.Equal(t, uint32(6002), *invs[3].Failure.ErrorCode)
}

func TestLogTypeString(t *testing.T) {
	assert.Equal(t, "Data", LogTypeData.String())
	assert.Equal(t, "Unknown", LogType(42).String())
}
