package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeQuestionFingerprints(t *testing.T) {
	fingerprints := []string{
		QuestionFingerprint("What is a membrane?"),
		"not base64!",
		QuestionFingerprint("What is a membrane?"),
		"",
		QuestionFingerprint("Where is DNA stored?"),
	}
	assert.Equal(t, []string{"What is a membrane?", "Where is DNA stored?"}, DecodeQuestionFingerprints(fingerprints))
}

func TestQuestionFingerprint(t *testing.T) {
	assert.Equal(t, "UT8=", QuestionFingerprint("Q?"))
	assert.NotEqual(t, QuestionFingerprint("Q?"), QuestionFingerprint("Q ?"))
}
