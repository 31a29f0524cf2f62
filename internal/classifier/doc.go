// Package classifier turns a message subject and snippet into a category and
// a confidence score by prompting a language model.
//
// Classification is fail-soft. Client.Classify never returns an error: when
// the model cannot be reached or its reply cannot be parsed, the result is
// {Unknown, 0.0} and a decision policy will route the message to review.
// The cause is kept in Result.Fallback for logging and metrics.
package classifier
