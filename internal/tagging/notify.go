package tagging

// Level is the severity of a user-facing status message.
type Level string

const (
	LevelSuccess Level = "success"
	LevelDanger  Level = "danger"
)

// Notifier receives status messages for the annotator.
type Notifier interface {
	Notify(level Level, message string)
}

// NotifierFunc adapts a function to a Notifier.
type NotifierFunc func(level Level, message string)

func (f NotifierFunc) Notify(level Level, message string) { f(level, message) }

// Searcher is the concordance panel driven by find mode.
type Searcher interface {
	Show()
	Search(text string)
}

// Clipboard receives text copied in select mode.
type Clipboard interface {
	Copy(text string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Level, string) {}

type nopSearcher struct{}

func (nopSearcher) Show()         {}
func (nopSearcher) Search(string) {}

type nopClipboard struct{}

func (nopClipboard) Copy(string) {}
