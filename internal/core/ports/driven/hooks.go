package driven

import "context"

// HookRunner invokes the external pre- and post-consume scripts.
// A non-zero exit code is the only defined failure signal; process
// handles are released on every exit path.
type HookRunner interface {
	// RunPreConsume invokes the pre-consumption script with the source
	// file path as its only argument. A nil return means the script is
	// unconfigured or exited zero.
	RunPreConsume(ctx context.Context, sourcePath string) error

	// RunPostConsume invokes the post-consumption script with the
	// document id, original filename, thumbnail filename, download URL,
	// thumbnail URL, correspondent name (possibly empty) and the
	// comma-joined tag names as positional arguments.
	RunPostConsume(ctx context.Context, args PostConsumeArgs) error
}

// PostConsumeArgs are the positional arguments of the post-consume
// script.
type PostConsumeArgs struct {
	DocumentID    int64
	Filename      string
	Thumbnail     string
	DownloadURL   string
	ThumbnailURL  string
	Correspondent string
	TagNames      []string
}
