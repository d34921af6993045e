package quiz

import "encoding/base64"

// QuestionFingerprint identifies a served question in a user's history.
// It is reversible so previously served texts can be listed in the exclusion prompt.
func QuestionFingerprint(questionText string) string {
	return base64.StdEncoding.EncodeToString([]byte(questionText))
}

// DecodeQuestionFingerprints returns the question texts for valid fingerprints, skipping duplicates.
func DecodeQuestionFingerprints(fingerprints []string) []string {
	seen := make(map[string]struct{}, len(fingerprints))
	texts := make([]string, 0, len(fingerprints))
	for _, fp := range fingerprints {
		decoded, err := base64.StdEncoding.DecodeString(fp)
		if err != nil || len(decoded) == 0 {
			continue
		}
		text := string(decoded)
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		texts = append(texts, text)
	}
	return texts
}
