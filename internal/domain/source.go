package domain

const (
	SourceGitHub = "github" // Target is owner/repo
	SourceURL    = "url"    // Target is an http(s) URL
	SourceFile   = "file"   // Target is a local path
	SourceIMAP   = "imap"   // Target is a mailbox, Subject filters messages
)

type Source struct {
	ID      string `yaml:"id"`
	Kind    string `yaml:"kind"`
	Target  string `yaml:"target"`
	Subject string `yaml:"subject,omitempty"`
}

// Name is the identifier stamped on records as source_repo.
func (s Source) Name() string {
	if s.ID != "" {
		return s.ID
	}
	return s.Target
}
