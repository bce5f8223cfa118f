package protocol

// Shared value objects carried inside payloads. Field names are camelCase on
// the wire.

// ClientInfo describes one registered client as seen by other clients.
type ClientInfo struct {
	ID      string `json:"id"`
	Key     string `json:"key"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}

// GameSettings is a value object replaced wholesale by request; it has no
// identity of its own.
type GameSettings struct {
	MinFrequency      uint64  `json:"minFrequency"`
	MaxFrequency      uint64  `json:"maxFrequency"`
	UsingMaxFrequency bool    `json:"usingMaxFrequency"`
	RoundDuration     uint64  `json:"roundDuration"` // seconds
	RoundsCount       uint64  `json:"roundsCount"`
	WordPart          *string `json:"wordPart"`
	WordPartReading   *string `json:"wordPartReading"`
	FontsCount        uint64  `json:"fontsCount"`
	FirstFontName     *string `json:"firstFontName"`
}

// WordPartExample is one dictionary example for a word part reading.
type WordPartExample struct {
	Word      string   `json:"word"`
	Frequency *float64 `json:"frequency"`
	Reading   string   `json:"reading"`
}

type WordPartInfo struct {
	WordPart        string            `json:"wordPart"`
	WordPartReading string            `json:"wordPartReading"`
	Examples        []WordPartExample `json:"examples"`
}

// ReadingWithParts is one accepted reading of a word. Answer correctness is
// membership of the submitted text in the question's reading set.
type ReadingWithParts struct {
	Reading string         `json:"reading"`
	Parts   []WordPartInfo `json:"parts"`
}

// WordInfo carries the word, its senses and its accepted readings. The
// meanings nesting is keb -> sense -> gloss, as produced by the dictionary.
type WordInfo struct {
	Word     string             `json:"word"`
	Meanings [][][]string       `json:"meanings"`
	Readings []ReadingWithParts `json:"readings"`
}

// QuestionInfo is the question supplied by the admin client for one round.
// The server treats it as opaque apart from the reading set.
type QuestionInfo struct {
	WordInfo WordInfo `json:"wordInfo"`
	FontName string   `json:"fontName"`
}

// AnswerInfo records one client's answer for a round. AnswerTime is
// milliseconds from question open to submission.
type AnswerInfo struct {
	ID         string `json:"id"`
	Answer     string `json:"answer"`
	IsCorrect  bool   `json:"isCorrect"`
	AnswerTime uint64 `json:"answerTime"`
}
