package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks failures caused by the caller's file: missing, too
// large, wrong MIME type, or unprocessable image bytes. Mapped to 400.
var ErrInvalidInput = errors.New("invalid input")

// ErrStorageUnavailable marks failures of the backing store: directory
// creation, object write, bucket access. Mapped to 500.
var ErrStorageUnavailable = errors.New("storage unavailable")

// UploadedFile is the in-memory descriptor of one uploaded file, produced by
// the transport layer and consumed exactly once by the media service.
type UploadedFile struct {
	Bytes        []byte
	ContentType  string
	OriginalName string
	Size         int64
}

// Category classifies an upload. The category fixes the storage subdirectory
// and the validation class applied before anything touches disk.
type Category string

const (
	CategoryAvatar     Category = "avatars"
	CategoryStrategy   Category = "strategy"
	CategoryMissionary Category = "missionary"
	CategoryProjects   Category = "projects"
	CategoryChat       Category = "chat"
	CategoryResume     Category = "resume"
)

// Categories lists every known category. Storage backends provision one
// directory (or key prefix) per entry at startup.
func Categories() []Category {
	return []Category{
		CategoryAvatar,
		CategoryStrategy,
		CategoryMissionary,
		CategoryProjects,
		CategoryChat,
		CategoryResume,
	}
}

// Class is the validation policy bucket a category resolves to. Several
// categories share a class; the mapping lives in Category.Class so it can be
// reviewed in one place.
type Class string

const (
	ClassAvatar Class = "avatar"
	ClassImage  Class = "image"
	ClassVideo  Class = "video"
	ClassResume Class = "resume"
)

// Class returns the validation class for the category.
func (c Category) Class() Class {
	switch c {
	case CategoryAvatar:
		return ClassAvatar
	case CategoryStrategy, CategoryMissionary, CategoryProjects:
		return ClassImage
	case CategoryChat:
		return ClassVideo
	case CategoryResume:
		return ClassResume
	default:
		return ClassImage
	}
}

func (c Category) String() string { return string(c) }

// Policy is the size and type limit applied to one validation class.
type Policy struct {
	MaxSize      int64
	AllowedTypes []string
}

const (
	maxAvatarSize = 5 << 20
	maxImageSize  = 15 << 20
	maxVideoSize  = 50 << 20
	maxResumeSize = 5 << 20
)

var policies = map[Class]Policy{
	ClassAvatar: {MaxSize: maxAvatarSize, AllowedTypes: []string{"image/jpeg", "image/png", "image/webp"}},
	ClassImage:  {MaxSize: maxImageSize, AllowedTypes: []string{"image/jpeg", "image/png", "image/webp"}},
	ClassVideo:  {MaxSize: maxVideoSize, AllowedTypes: []string{"video/mp4", "video/webm", "video/ogg"}},
	ClassResume: {MaxSize: maxResumeSize, AllowedTypes: []string{"application/pdf"}},
}

// PolicyFor returns the policy table entry for the class.
func PolicyFor(class Class) Policy {
	return policies[class]
}

// Validate checks the file against the category's policy. It performs no I/O
// and must be called before any disk or network write.
func Validate(file *UploadedFile, category Category) error {
	if file == nil || len(file.Bytes) == 0 {
		return fmt.Errorf("%w: file not provided", ErrInvalidInput)
	}

	class := category.Class()
	policy := policies[class]

	if file.Size > policy.MaxSize {
		return fmt.Errorf("%w: file too large, maximum for %s is %d bytes", ErrInvalidInput, class, policy.MaxSize)
	}

	if class == ClassResume {
		if file.ContentType != "application/pdf" {
			return fmt.Errorf("%w: resume must be a PDF", ErrInvalidInput)
		}
		return nil
	}

	for _, t := range policy.AllowedTypes {
		if file.ContentType == t {
			return nil
		}
	}
	return fmt.Errorf("%w: unsupported type %q, allowed: %v", ErrInvalidInput, file.ContentType, policy.AllowedTypes)
}
