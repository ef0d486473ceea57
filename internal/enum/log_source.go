package enum

type LogSource string

const (
	LogSourceEmail     LogSource = "email"
	LogSourceFile      LogSource = "uploaded_file"
	LogSourceDirectory LogSource = "directory"
)

func (s LogSource) String() string {
	return string(s)
}
