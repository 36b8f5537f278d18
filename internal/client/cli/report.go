package cli

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophstore/internal/client/upload"
)

// progressStep is how often (in percent) upload progress is printed.
const progressStep = 25

type uploadMark struct {
	status upload.Status
	step   int
}

// uploadReporter turns queue change events into short console lines:
// one per status transition and one per progressStep while uploading.
type uploadReporter struct {
	mu     sync.Mutex
	last   map[int64]uploadMark
	printf func(format string, args ...any)
}

func newUploadReporter(printf func(format string, args ...any)) *uploadReporter {
	return &uploadReporter{last: make(map[int64]uploadMark), printf: printf}
}

func (r *uploadReporter) onChange(e upload.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, seen := r.last[e.ID]
	mark := uploadMark{status: e.Status, step: e.Progress / progressStep}
	if seen && prev == mark {
		return
	}

	switch {
	case e.Status == upload.StatusQueued:
	case e.Status == upload.StatusError:
		r.printf("upload #%d %s failed: %v\n", e.ID, e.Name, e.Err)
	case e.Status == upload.StatusSuccess:
		r.printf("upload #%d %s done (file %d)\n", e.ID, e.Name, e.FileID)
	case e.Status == upload.StatusProcessing && prev.status != upload.StatusProcessing:
		r.printf("upload #%d %s sent, waiting for server\n", e.ID, e.Name)
	case e.Status == upload.StatusUploading && (!seen || prev.status != upload.StatusUploading):
		r.printf("upload #%d %s started\n", e.ID, e.Name)
	case e.Status == upload.StatusUploading && mark.step > prev.step && mark.step > 0:
		r.printf("upload #%d %s %d%%\n", e.ID, e.Name, mark.step*progressStep)
	}

	if e.Status.Active() {
		r.last[e.ID] = mark
	} else {
		delete(r.last, e.ID)
	}
}

func writeUploads(w io.Writer, entries []upload.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tSTATUS\tPROGRESS\tDETAIL")
	for _, e := range entries {
		detail := ""
		switch {
		case e.Err != nil:
			detail = e.Err.Error()
		case e.FileID != 0:
			detail = "file " + strconv.FormatInt(e.FileID, 10)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%d%%\t%s\n", e.ID, e.Name, e.Size, e.Status, e.Progress, detail)
	}
	return tw.Flush()
}
