package registration

import (
	"errors"
	"fmt"

	"github.com/aanand-mishra/hostel-api/internal/types"
)

// MaxAttachments caps the number of documents per registration.
const MaxAttachments = 5

// AttachmentState is where an attachment list sits between empty and full.
type AttachmentState string

const (
	AttachmentsEmpty   AttachmentState = "empty"
	AttachmentsPartial AttachmentState = "partial"
	AttachmentsFull    AttachmentState = "full"
)

type attachment struct {
	meta   types.Attachment
	handle string
}

// AttachmentList is an ordered, bounded list of attachments together with
// the preview handle each one owns. It is not safe for concurrent use;
// Form serialises access to it.
type AttachmentList struct {
	previews Previews
	items    []attachment
}

func newAttachmentList(p Previews) AttachmentList {
	return AttachmentList{previews: p}
}

func (l *AttachmentList) Len() int { return len(l.items) }

func (l *AttachmentList) State() AttachmentState {
	switch {
	case len(l.items) == 0:
		return AttachmentsEmpty
	case len(l.items) >= MaxAttachments:
		return AttachmentsFull
	default:
		return AttachmentsPartial
	}
}

// Items returns the attachment metadata in order.
func (l *AttachmentList) Items() []types.Attachment {
	out := make([]types.Attachment, len(l.items))
	for i, it := range l.items {
		out[i] = it.meta
	}
	return out
}

// Add appends files, creating one preview per file. If the result would
// exceed MaxAttachments nothing is added and ErrTooManyFiles is returned.
// A preview failure part way through also leaves the list unchanged.
func (l *AttachmentList) Add(files []File) error {
	if len(l.items)+len(files) > MaxAttachments {
		return ErrTooManyFiles
	}

	added := make([]attachment, 0, len(files))
	for _, f := range files {
		handle, err := l.previews.Create(f)
		if err != nil {
			for _, a := range added {
				_ = l.previews.Revoke(a.handle)
			}
			return fmt.Errorf("create preview for %s: %w", f.Name, err)
		}

		added = append(added, attachment{
			meta: types.Attachment{
				Name:        f.Name,
				ContentType: f.ContentType,
				Size:        int64(len(f.Data)),
				PreviewURL:  l.previews.URL(handle),
			},
			handle: handle,
		})
	}

	l.items = append(l.items, added...)
	return nil
}

// Remove drops the attachment at index and releases its preview. An
// index out of range is a no-op and reports false.
func (l *AttachmentList) Remove(index int) (bool, error) {
	if index < 0 || index >= len(l.items) {
		return false, nil
	}

	handle := l.items[index].handle
	l.items = append(l.items[:index:index], l.items[index+1:]...)

	return true, l.previews.Revoke(handle)
}

// Release revokes every preview and empties the list.
func (l *AttachmentList) Release() error {
	var errs []error
	for _, it := range l.items {
		if err := l.previews.Revoke(it.handle); err != nil {
			errs = append(errs, err)
		}
	}
	l.items = nil
	return errors.Join(errs...)
}
