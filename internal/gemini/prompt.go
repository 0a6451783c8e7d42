package gemini

import "fmt"

// buildPrompt embeds the commit digest in the fixed evaluation rubric.
// The six dimensions here must stay in lockstep with scoreDimensions and
// the model.Scores/model.Report field sets.
func buildPrompt(commitLog string) string {
	return fmt.Sprintf(`Analyze the following git log and evaluate the developer's working habits.

[git log]
%s

[Evaluation criteria - score each from 0 to 100]
- test: presence and proportion of test code
- comment: quality and quantity of comments
- commit_size: appropriateness of each commit's size (smaller is better)
- commit_frequency: how regularly commits are made
- commit_message: message quality (e.g. Conventional Commits compliance)
- activity: consistency of working activity

For each criterion, return an integer score and a short written rationale.
`, commitLog)
}
