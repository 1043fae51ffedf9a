package models

const (
	// SourceHeaderPrefix marks the attribution line scraped pages carry as
	// their first line, e.g. "Source: https://example.edu/visit".
	SourceHeaderPrefix = "Source:"

	// FallbackAnswer is returned verbatim whenever retrieval comes back
	// below threshold. Retrieval misses must never fall through to an
	// ungrounded generation.
	FallbackAnswer = "I couldn't find that information in the documents I have. Please contact the office directly or try rephrasing your question."
)

// BreadthKeywords signal that a question asks for a collection of facts
// rather than a single one.
var BreadthKeywords = []string{
	"top",
	"list",
	"all",
	"examples of",
	"types of",
	"where have students",
	"placement",
	"placements",
	"companies",
	"organizations",
	"organisations",
	"firms",
	"employers",
	"how many",
}

// DomainKeywords scope the aggregation heuristic to internship questions;
// breadth words alone ("all", "top") are far too common to branch on.
var DomainKeywords = []string{
	"internship",
	"internships",
	"placement",
	"placements",
	"intern",
	"interned",
}

// FanOutQueries are the fixed broadened paraphrases issued alongside an
// aggregation question to widen recall across scattered chunks.
var FanOutQueries = []string{
	"list of student internship placements",
	"companies and organizations where students have interned",
	"examples of internships completed by students",
	"organizations that have hosted student interns",
}

// AnswerPromptTemplate wraps retrieved context and the user question for the
// chat model. Placeholders: context, question.
var AnswerPromptTemplate = `Use only the context below to answer the question. If the context does not contain the answer, say you don't know.

Context:
%s

Question: %s`
