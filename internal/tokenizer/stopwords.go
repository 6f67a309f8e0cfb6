package tokenizer

// StopWords is an immutable set of tokens the filter always rejects.
type StopWords struct {
	words map[string]struct{}
}

// Punctuation is the ASCII punctuation set; each character is a stopword.
const Punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// NewStopWords builds a stopword set from words, the punctuation characters,
// the escaped newline marker and the "quot" entity remnant.
func NewStopWords(words []string) StopWords {
	set := make(map[string]struct{}, len(words)+len(Punctuation)+2)
	for _, w := range words {
		set[w] = struct{}{}
	}
	for i := 0; i < len(Punctuation); i++ {
		set[Punctuation[i:i+1]] = struct{}{}
	}
	set[`\n`] = struct{}{}
	set["quot"] = struct{}{}
	return StopWords{words: set}
}

// EnglishStopWords returns the stopword set used for English abstracts.
func EnglishStopWords() StopWords {
	return NewStopWords(english)
}

// Contains reports whether token is a stopword.
func (s StopWords) Contains(token string) bool {
	_, ok := s.words[token]
	return ok
}

// Len returns the number of entries in the set.
func (s StopWords) Len() int {
	return len(s.words)
}

var english = []string{
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you",
	"you're", "you've", "you'll", "you'd", "your", "yours", "yourself",
	"yourselves", "he", "him", "his", "himself", "she", "she's", "her",
	"hers", "herself", "it", "it's", "its", "itself", "they", "them",
	"their", "theirs", "themselves", "what", "which", "who", "whom", "this",
	"that", "that'll", "these", "those", "am", "is", "are", "was", "were",
	"be", "been", "being", "have", "has", "had", "having", "do", "does",
	"did", "doing", "a", "an", "the", "and", "but", "if", "or", "because",
	"as", "until", "while", "of", "at", "by", "for", "with", "about",
	"against", "between", "into", "through", "during", "before", "after",
	"above", "below", "to", "from", "up", "down", "in", "out", "on", "off",
	"over", "under", "again", "further", "then", "once", "here", "there",
	"when", "where", "why", "how", "all", "any", "both", "each", "few",
	"more", "most", "other", "some", "such", "no", "nor", "not", "only",
	"own", "same", "so", "than", "too", "very", "s", "t", "can", "will",
	"just", "don", "don't", "should", "should've", "now", "d", "ll", "m",
	"o", "re", "ve", "y", "ain", "aren", "aren't", "couldn", "couldn't",
	"didn", "didn't", "doesn", "doesn't", "hadn", "hadn't", "hasn",
	"hasn't", "haven", "haven't", "isn", "isn't", "ma", "mightn",
	"mightn't", "mustn", "mustn't", "needn", "needn't", "shan", "shan't",
	"shouldn", "shouldn't", "wasn", "wasn't", "weren", "weren't", "won",
	"won't", "wouldn", "wouldn't",
}
