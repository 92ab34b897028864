package core

// Logger is the logging facade shared by every layer.
// expected args fmt: error, map[string]interface{}, Actor
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Actor identifies who triggered an operation (a dashboard profile, the CLI, a scheduled job).
type Actor struct {
	ID    string
	Email string
	Name  string
}

func (a Actor) String() string {
	if a.Email != "" {
		return a.Email
	}
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// SystemActor is used for operations triggered from the admin CLI.
var SystemActor = Actor{ID: "system", Name: "system"}

type nopLogger struct{}

// NewNopLogger returns a Logger that discards everything; used in tests.
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}
