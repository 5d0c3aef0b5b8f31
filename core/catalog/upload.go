package catalog

import (
	"bytes"
	"context"
	"io"
	"strings"

	"Playshare/storage"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

// Upload is a file received from a form.
type Upload struct {
	Filename string
	Reader   io.Reader
}

// storedFile is an upload that passed validation and is ready for Put.
type storedFile struct {
	key         string
	data        []byte
	contentType string
}

func readUpload(field string, u *Upload, verr *ValidationError) []byte {
	data, err := io.ReadAll(u.Reader)
	if err != nil {
		verr.add(field, "The file could not be read.")
		return nil
	}
	if len(data) == 0 {
		verr.add(field, "The submitted file is empty.")
		return nil
	}
	return data
}

// checkCover reads and decodes an image upload.
func checkCover(u *Upload, verr *ValidationError) *storedFile {
	data := readUpload("cover_image", u, verr)
	if data == nil {
		return nil
	}
	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		verr.add("cover_image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
		return nil
	}
	return &storedFile{
		key:         storage.NewKey(storage.CoverPrefix, u.Filename),
		data:        data,
		contentType: mimetype.Detect(data).String(),
	}
}

// checkAudio reads an upload and sniffs it for an audio format.
func checkAudio(u *Upload, verr *ValidationError) *storedFile {
	data := readUpload("audio_file", u, verr)
	if data == nil {
		return nil
	}
	mt := mimetype.Detect(data)
	if !isAudio(mt) {
		verr.add("audio_file", "Upload a valid audio file.")
		return nil
	}
	return &storedFile{
		key:         storage.NewKey(storage.SongPrefix, u.Filename),
		data:        data,
		contentType: mt.String(),
	}
}

func isAudio(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "audio/") || m.Is("application/ogg") {
			return true
		}
	}
	return false
}

func (s *Service) put(ctx context.Context, f *storedFile) error {
	if err := s.blobs.Put(ctx, f.key, bytes.NewReader(f.data), int64(len(f.data)), f.contentType); err != nil {
		return errors.Wrap(err, "failed to store upload")
	}
	return nil
}
