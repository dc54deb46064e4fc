package models

// Intent is a named category of user meaning with example patterns and
// candidate responses.
type Intent struct {
	Tag       string   `json:"tag" yaml:"tag"`
	Patterns  []string `json:"patterns" yaml:"patterns"`
	Responses []string `json:"responses" yaml:"responses"`
}

// CorpusDefinition is the on-disk shape of an intent corpus.
type CorpusDefinition struct {
	Intents []Intent `json:"intents" yaml:"intents"`
}
