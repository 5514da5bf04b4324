package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// Pipeline error kinds. Controllers map these to HTTP statuses with errors.Is.
var (
	ErrMissingManifest  = errors.New("user.json is missing from the archive")
	ErrInvalidManifest  = errors.New("user.json is invalid")
	ErrAnalysisFailed   = errors.New("analysis script failed")
	ErrIncompleteOutput = errors.New("analysis script did not produce the expected output files")
	ErrMalformedOutput  = errors.New("analysis output files could not be parsed")
)

// ErrMissingConversations enumerates the accepted filenames so the user knows
// what the archive must contain.
var ErrMissingConversations = fmt.Errorf(
	"no conversations file found in the archive, expected one of: %s",
	strings.Join(ConversationFileNames, ", "),
)
