// Package log parses the program log lines of a transaction receipt.
//
// Example usage:
//
//	parser := log.NewParser()
//	for _, inv := range parser.Invocations(receipt.LogMessages) {
//	    if inv.ProgramID == programID.String() {
//	        // decode inv.Data
//	    }
//	}
//	if f := parser.Failure(receipt.LogMessages); f != nil && f.ErrorCode != nil {
//	    // *f.ErrorCode is the custom program error number
//	}
package log

import (
	"encoding/base64"
	"regexp"
	"strconv"
	"strings"
)

// LogType represents the type of a log message.
type LogType int

const (
	LogTypeUnknown LogType = iota
	// LogTypeInvoke is "Program X invoke [N]".
	LogTypeInvoke
	// LogTypeSuccess is "Program X success".
	LogTypeSuccess
	// LogTypeFailed is "Program X failed[: reason]".
	LogTypeFailed
	// LogTypeData is "Program data: BASE64".
	LogTypeData
	// LogTypeLog is "Program log: MESSAGE".
	LogTypeLog
	// LogTypeComputeUnits is "Program X consumed N of M compute units".
	LogTypeComputeUnits
)

var logTypeNames = map[LogType]string{
	LogTypeInvoke:       "Invoke",
	LogTypeSuccess:      "Success",
	LogTypeFailed:       "Failed",
	LogTypeData:         "Data",
	LogTypeLog:          "Log",
	LogTypeComputeUnits: "ComputeUnits",
}

func (lt LogType) String() string {
	if name, ok := logTypeNames[lt]; ok {
		return name
	}
	return "Unknown"
}

// ParsedLog is one log line and the fields its type carries.
type ParsedLog struct {
	Type LogType

	// StackHeight is the 1-indexed call depth of an Invoke line.
	StackHeight int

	// ProgramID is set on Invoke, Success, Failed and ComputeUnits lines.
	ProgramID string

	// Data is the base64-decoded payload of a Data line. It stays nil when the
	// payload is not valid base64.
	Data []byte

	// Message is the text of a Log line.
	Message string

	ComputeUnits *uint64

	// Reason is the text after "failed: ".
	Reason string

	// ErrorCode is the custom program error number of a Failed line.
	ErrorCode *uint32

	RawLog string
}

const (
	dataPrefix = "Program data: "
	logPrefix  = "Program log: "

	// InstructionPrefix starts the "Program log:" line a program writes to
	// name the instruction it runs.
	InstructionPrefix = "Instruction: "
)

// LogParser parses Solana transaction logs. It is safe for concurrent use.
type LogParser struct {
	invoke       *regexp.Regexp
	success      *regexp.Regexp
	failed       *regexp.Regexp
	computeUnits *regexp.Regexp
	customError  *regexp.Regexp
}

func NewParser() *LogParser {
	return &LogParser{
		invoke:       regexp.MustCompile(`^Program (\S+) invoke \[(\d+)\]$`),
		success:      regexp.MustCompile(`^Program (\S+) success$`),
		failed:       regexp.MustCompile(`^Program (\S+) failed(?:: (.*))?$`),
		computeUnits: regexp.MustCompile(`^Program (\S+) consumed (\d+) of \d+ compute units$`),
		customError:  regexp.MustCompile(`^custom program error: 0x([0-9a-fA-F]+)$`),
	}
}

// Parse classifies a single log line.
func (p *LogParser) Parse(line string) *ParsedLog {
	out := &ParsedLog{RawLog: line}

	if rest, ok := strings.CutPrefix(line, dataPrefix); ok {
		out.Type = LogTypeData
		if decoded, err := base64.StdEncoding.DecodeString(rest); err == nil {
			out.Data = decoded
		}
		return out
	}
	if rest, ok := strings.CutPrefix(line, logPrefix); ok {
		out.Type = LogTypeLog
		out.Message = rest
		return out
	}

	if m := p.invoke.FindStringSubmatch(line); m != nil {
		out.Type = LogTypeInvoke
		out.ProgramID = m[1]
		out.StackHeight, _ = strconv.Atoi(m[2])
	} else if m := p.success.FindStringSubmatch(line); m != nil {
		out.Type = LogTypeSuccess
		out.ProgramID = m[1]
	} else if m := p.failed.FindStringSubmatch(line); m != nil {
		out.Type = LogTypeFailed
		out.ProgramID = m[1]
		out.Reason = m[2]
		out.ErrorCode = p.customCode(m[2])
	} else if m := p.computeUnits.FindStringSubmatch(line); m != nil {
		out.Type = LogTypeComputeUnits
		out.ProgramID = m[1]
		if cu, err := strconv.ParseUint(m[2], 10, 64); err == nil {
			out.ComputeUnits = &cu
		}
	}
	return out
}

func (p *LogParser) customCode(reason string) *uint32 {
	m := p.customError.FindStringSubmatch(reason)
	if m == nil {
		return nil
	}
	n, err := strconv.ParseUint(m[1], 16, 32)
	if err != nil {
		return nil
	}
	code := uint32(n)
	return &code
}

// ParseAll parses every line in order.
func (p *LogParser) ParseAll(logMessages []string) []*ParsedLog {
	out := make([]*ParsedLog, 0, len(logMessages))
	for _, line := range logMessages {
		out = append(out, p.Parse(line))
	}
	return out
}

// ExtractProgramData returns the decoded payload of every Data line, whichever
// program wrote it.
func (p *LogParser) ExtractProgramData(logMessages []string) [][]byte {
	var data [][]byte
	for _, parsed := range p.ParseAll(logMessages) {
		if parsed.Type == LogTypeData && len(parsed.Data) > 0 {
			data = append(data, parsed.Data)
		}
	}
	return data
}

// ExtractInstructions returns the instruction names logged with InstructionPrefix.
func (p *LogParser) ExtractInstructions(logMessages []string) []string {
	var names []string
	for _, parsed := range p.ParseAll(logMessages) {
		if parsed.Type != LogTypeLog {
			continue
		}
		if name, ok := strings.CutPrefix(parsed.Message, InstructionPrefix); ok {
			names = append(names, name)
		}
	}
	return names
}

// Failure returns the first Failed line, or nil when no program failed.
func (p *LogParser) Failure(logMessages []string) *ParsedLog {
	for _, parsed := range p.ParseAll(logMessages) {
		if parsed.Type == LogTypeFailed {
			return parsed
		}
	}
	return nil
}

// Invocation is the output of one program call. Lines written by programs it
// calls belong to their own Invocation.
type Invocation struct {
	ProgramID string

	// Index is the position of the top-level instruction this call belongs to.
	Index int
	Depth int

	// Instruction is the name logged with InstructionPrefix, if any.
	Instruction string
	Logs        []string
	Data        [][]byte

	// Failure is the Failed line that ended the call, nil on success or when
	// the logs are truncated.
	Failure *ParsedLog
}

// Invocations groups log lines by the program call that wrote them, in the
// order the calls started.
func (p *LogParser) Invocations(logMessages []string) []*Invocation {
	var (
		out   []*Invocation
		stack []*Invocation
		index = -1
	)

	for _, parsed := range p.ParseAll(logMessages) {
		var current *Invocation
		if len(stack) > 0 {
			current = stack[len(stack)-1]
		}

		switch parsed.Type {
		case LogTypeInvoke:
			if parsed.StackHeight <= 1 || index < 0 {
				index++
			}
			if depth := parsed.StackHeight - 1; depth >= 0 && depth < len(stack) {
				stack = stack[:depth]
			}
			inv := &Invocation{ProgramID: parsed.ProgramID, Index: index, Depth: parsed.StackHeight}
			out = append(out, inv)
			stack = append(stack, inv)
		case LogTypeSuccess, LogTypeFailed:
			if current == nil {
				continue
			}
			if parsed.Type == LogTypeFailed {
				current.Failure = parsed
			}
			stack = stack[:len(stack)-1]
		case LogTypeLog:
			if current == nil {
				continue
			}
			current.Logs = append(current.Logs, parsed.Message)
			if name, ok := strings.CutPrefix(parsed.Message, InstructionPrefix); ok && current.Instruction == "" {
				current.Instruction = name
			}
		case LogTypeData:
			if current != nil && len(parsed.Data) > 0 {
				current.Data = append(current.Data, parsed.Data)
			}
		}
	}
	return out
}
