package media

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"mediahub/internal/blobstore"
	"mediahub/internal/contenthash"
	"mediahub/internal/imagegen"
	"mediahub/internal/models"
)

// Upload is one ingestion request. Either Data or SourcePath supplies the
// content.
type Upload struct {
	Data             []byte
	SourcePath       string
	OriginalFileName string
	MimeType         string
	// Hash is an optional pre-computed content hash of the source bytes.
	Hash string
	// Crop, when set, stores the cropped region of the source instead of
	// the source itself.
	Crop *imagegen.Rect
	// Replace updates the record of the source in place when cropping.
	Replace bool
	Tags    []string
	UserID  string
}

// CropInput crops an already stored record.
type CropInput struct {
	MediaID string
	Rect    imagegen.Rect
	Replace bool
	Tags    []string
	UserID  string
}

// Assembler runs the ingestion pipeline and builds client views.
type Assembler struct {
	records   RecordStore
	options   OptionStore
	files     blobstore.FileStore
	hasher    *contenthash.Hasher
	generator *imagegen.Generator
	publisher blobstore.Publisher
	logger    *slog.Logger
	now       func() time.Time

	maxUploadBytes int64

	flight singleflight.Group
}

// NewAssembler constructs an Assembler.
func NewAssembler(records RecordStore, options OptionStore, files blobstore.FileStore, hasher *contenthash.Hasher, generator *imagegen.Generator, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	if generator == nil {
		generator = imagegen.NewGenerator(logger)
	}
	return &Assembler{
		records:   records,
		options:   options,
		files:     files,
		hasher:    hasher,
		generator: generator,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ConfigurePublisher mirrors every stored file to p. Records then carry
// the absolute URLs p returns. A nil p disables publication.
func (a *Assembler) ConfigurePublisher(p blobstore.Publisher) {
	a.publisher = p
}

// ConfigureLimits sets the maximum accepted upload size. Zero disables the
// limit.
func (a *Assembler) ConfigureLimits(maxUploadBytes int64) {
	if maxUploadBytes < 0 {
		maxUploadBytes = 0
	}
	a.maxUploadBytes = maxUploadBytes
}

// SetClock overrides the clock used for destination allocation.
func (a *Assembler) SetClock(now func() time.Time) {
	if now != nil {
		a.now = now
	}
}

type prepared struct {
	data             []byte
	hash             string
	mimeType         string
	originalFileName string
	extension        string
	tags             []string
	userID           string
}

// storedFiles tracks what one store call produced.
type storedFiles struct {
	path      string
	meta      models.MetaData
	written   []string
	published []string
}

// Ingest stores an upload, reusing the existing record when the same
// content was stored before.
func (a *Assembler) Ingest(ctx context.Context, in Upload) (MediaView, error) {
	var zero MediaView
	req, err := a.prepare(in)
	if err != nil {
		return zero, err
	}

	var rec *models.MediaRecord
	if in.Crop != nil {
		existing, err := a.records.Get(ctx, req.hash, nil)
		if err != nil {
			return zero, remoteError(err)
		}
		rec, err = a.crop(ctx, req, *in.Crop, existing, in.Replace)
		if err != nil {
			return zero, err
		}
	} else {
		rec, err = a.ingestOriginal(ctx, req)
		if err != nil {
			return zero, err
		}
	}
	return a.view(ctx, rec)
}

// Crop crops the stored original of an existing record.
func (a *Assembler) Crop(ctx context.Context, in CropInput) (MediaView, error) {
	var zero MediaView
	id := strings.TrimSpace(in.MediaID)
	if id == "" {
		return zero, validationError(fmt.Errorf("media id is required"))
	}
	rec, err := a.records.Get(ctx, id, nil)
	if err != nil {
		return zero, remoteError(err)
	}
	if rec == nil {
		return zero, notFound(fmt.Errorf("media %s not found", id))
	}

	key, err := a.localKey(rec.Path)
	if err != nil {
		return zero, filesystemError(err)
	}
	data, err := a.files.Read(ctx, key)
	if err != nil {
		return zero, filesystemError(err)
	}

	tags := rec.Tags
	if in.Tags != nil {
		if tags, err = normalizeTags(in.Tags); err != nil {
			return zero, validationError(err)
		}
	}
	req := prepared{
		data:             data,
		hash:             rec.FileName,
		mimeType:         imagegen.NormalizeMimeType(rec.MimeType),
		originalFileName: rec.OriginalFileName,
		extension:        rec.Extension,
		tags:             tags,
		userID:           strings.TrimSpace(in.UserID),
	}
	if req.extension == "" {
		req.extension = resolveExtension(rec.OriginalFileName, req.mimeType)
	}

	out, err := a.crop(ctx, req, in.Rect, rec, in.Replace)
	if err != nil {
		return zero, err
	}
	return a.view(ctx, out)
}

// Get returns the view of the record with the given id or content hash.
func (a *Assembler) Get(ctx context.Context, idOrHash string) (MediaView, error) {
	var zero MediaView
	idOrHash = strings.TrimSpace(idOrHash)
	if idOrHash == "" {
		return zero, validationError(fmt.Errorf("media id or hash is required"))
	}
	rec, err := a.records.Get(ctx, idOrHash, nil)
	if err != nil {
		return zero, remoteError(err)
	}
	if rec == nil {
		return zero, notFound(fmt.Errorf("media %s not found", idOrHash))
	}
	return a.view(ctx, rec)
}

func (a *Assembler) prepare(in Upload) (prepared, error) {
	var zero prepared
	hash, err := normalizeHash(in.Hash)
	if err != nil {
		return zero, validationError(err)
	}

	data := in.Data
	sourcePath := strings.TrimSpace(in.SourcePath)
	if len(data) == 0 && sourcePath != "" {
		if hash == "" {
			hash, data, err = a.hasher.HashFile(sourcePath)
		} else {
			data, err = os.ReadFile(sourcePath)
		}
		if err != nil {
			return zero, filesystemError(fmt.Errorf("read %s: %w", sourcePath, err))
		}
	}
	if len(data) == 0 {
		return zero, validationError(fmt.Errorf("content is required"))
	}
	if a.maxUploadBytes > 0 && int64(len(data)) > a.maxUploadBytes {
		return zero, validationError(fmt.Errorf("upload of %d bytes exceeds limit of %d bytes", len(data), a.maxUploadBytes))
	}
	if hash == "" {
		hash = a.hasher.Hash(data)
	}

	name := strings.TrimSpace(in.OriginalFileName)
	if name == "" && sourcePath != "" {
		name = filepath.Base(sourcePath)
	}
	if name == "" {
		return zero, validationError(fmt.Errorf("original file name is required"))
	}

	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return zero, validationError(err)
	}

	mimeType := resolveMimeType(in.MimeType, data)
	return prepared{
		data:             data,
		hash:             hash,
		mimeType:         mimeType,
		originalFileName: name,
		extension:        resolveExtension(name, mimeType),
		tags:             tags,
		userID:           strings.TrimSpace(in.UserID),
	}, nil
}

// ingestOriginal stores req unless a record with its hash exists.
// Concurrent calls for the same hash share one result.
func (a *Assembler) ingestOriginal(ctx context.Context, req prepared) (*models.MediaRecord, error) {
	v, err, shared := a.flight.Do(req.hash, func() (any, error) {
		// Shared by every waiter; one caller cancelling must not fail the rest.
		ctx := context.WithoutCancel(ctx)
		existing, err := a.records.Get(ctx, req.hash, nil)
		if err != nil {
			return nil, remoteError(err)
		}
		if existing != nil {
			a.logger.Debug("reusing stored media", "id", existing.ID, "hash", req.hash)
			return existing, nil
		}

		stored, err := a.store(ctx, req, nil, false)
		if err != nil {
			return nil, err
		}
		rec, err := a.records.Create(ctx, CreateRecord{
			FileName:         req.hash,
			OriginalFileName: req.originalFileName,
			Extension:        req.extension,
			MimeType:         req.mimeType,
			Path:             stored.path,
			MetaData:         stored.meta,
			Tags:             req.tags,
			UserID:           req.userID,
		})
		if err == nil && rec == nil {
			err = fmt.Errorf("media record not returned after create")
		}
		if err != nil {
			a.discard(ctx, stored)
			return nil, remoteError(err)
		}
		a.logger.Info("media stored", "id", rec.ID, "hash", req.hash, "mime_type", req.mimeType, "scales", len(stored.meta.Scales))
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		a.logger.Debug("shared concurrent ingestion", "hash", req.hash)
	}
	return v.(*models.MediaRecord), nil
}

// crop stores the cropped region of req and persists it either over
// existing (replace) or as a new record.
func (a *Assembler) crop(ctx context.Context, req prepared, rect imagegen.Rect, existing *models.MediaRecord, replace bool) (*models.MediaRecord, error) {
	if replace && existing == nil {
		return nil, notFound(fmt.Errorf("media %s not found", req.hash))
	}
	if !imagegen.Cropable(req.mimeType) {
		return nil, validationError(fmt.Errorf("%w: %s cannot be cropped", imagegen.ErrUnsupportedType, req.mimeType))
	}

	src, err := imagegen.Decode(req.data)
	if err != nil {
		return nil, imageError(err)
	}
	cropped, err := imagegen.Crop(src, req.mimeType, rect, imagegen.DefaultCropQuality)
	if err != nil {
		return nil, imageError(err)
	}

	next := req
	next.data = cropped.Data
	next.hash = a.hasher.Hash(cropped.Data)

	stored, err := a.store(ctx, next, cropped.Image, true)
	if err != nil {
		return nil, err
	}

	if replace {
		err := a.records.Update(ctx, existing.ID, UpdateRecord{
			FileName: &next.hash,
			Path:     &stored.path,
			MetaData: &stored.meta,
			UserID:   req.userID,
		})
		if err != nil {
			a.discard(ctx, stored)
			return nil, remoteError(err)
		}
		rec, err := a.records.Get(ctx, existing.ID, nil)
		if err != nil {
			return nil, remoteError(err)
		}
		if rec == nil {
			return nil, notFound(fmt.Errorf("media %s not found", existing.ID))
		}
		a.logger.Info("media cropped in place", "id", rec.ID, "hash", next.hash)
		return rec, nil
	}

	rec, err := a.records.Create(ctx, CreateRecord{
		FileName:         next.hash,
		OriginalFileName: req.originalFileName,
		Extension:        req.extension,
		MimeType:         req.mimeType,
		Path:             stored.path,
		MetaData:         stored.meta,
		Tags:             req.tags,
		UserID:           req.userID,
	})
	if err == nil && rec == nil {
		err = fmt.Errorf("media record not returned after create")
	}
	if err != nil {
		a.discard(ctx, stored)
		return nil, remoteError(err)
	}
	a.logger.Info("media cropped", "id", rec.ID, "source_hash", req.hash, "hash", next.hash)
	return rec, nil
}

// store writes the original and its derivatives. decoded, when non-nil,
// is the already decoded content of req.data. bypassGate rewrites files
// even when a file of the same name exists.
func (a *Assembler) store(ctx context.Context, req prepared, decoded image.Image, bypassGate bool) (*storedFiles, error) {
	img := decoded
	if img == nil && imagegen.Decodable(req.mimeType) {
		var err error
		if img, err = imagegen.Decode(req.data); err != nil {
			return nil, imageError(err)
		}
	}

	var derivatives []imagegen.Derivative
	if img != nil && imagegen.Scaleable(req.mimeType) {
		settings, err := loadSettings(ctx, a.options)
		if err != nil {
			return nil, remoteError(err)
		}
		if derivatives, err = a.generator.Derive(ctx, img, req.mimeType, settings); err != nil {
			return nil, imageError(err)
		}
	}

	dest, err := a.files.Allocate(a.now())
	if err != nil {
		return nil, filesystemError(err)
	}

	out := &storedFiles{meta: models.MetaData{FileSize: int64(len(req.data))}}
	if img != nil {
		b := img.Bounds()
		out.meta.Width = models.IntPtr(b.Dx())
		out.meta.Height = models.IntPtr(b.Dy())
	}

	key := path.Join(dest.RelDir, req.hash+"."+req.extension)
	if out.path, err = a.put(ctx, out, key, req.data, req.mimeType, bypassGate); err != nil {
		a.discard(ctx, out)
		return nil, err
	}

	for _, d := range derivatives {
		dkey := path.Join(dest.RelDir, d.FileName(req.hash, req.extension))
		p, err := a.put(ctx, out, dkey, d.Data, req.mimeType, bypassGate)
		if err != nil {
			a.discard(ctx, out)
			return nil, err
		}
		out.meta.Scales = append(out.meta.Scales, models.ImageScale{
			Name:   d.Name,
			Width:  d.Width,
			Height: d.Height,
			Path:   p,
		})
	}
	return out, nil
}

// put writes one file unless the gate finds it already stored, publishes
// it when a publisher is configured, and returns its stored path. Only
// keys that did not exist before the call are recorded for discard.
func (a *Assembler) put(ctx context.Context, out *storedFiles, key string, data []byte, mimeType string, bypassGate bool) (string, error) {
	existed, err := a.files.Exists(ctx, key)
	if err != nil {
		return "", filesystemError(err)
	}
	if bypassGate || !existed {
		if err := a.files.Write(ctx, key, data); err != nil {
			return "", filesystemError(err)
		}
		if !existed {
			out.written = append(out.written, key)
		}
	}

	if a.publisher == nil {
		return a.files.PublicPath(key), nil
	}
	url, err := a.publisher.Publish(ctx, key, data, mimeType)
	if err != nil {
		return "", remoteError(err)
	}
	if !existed {
		out.published = append(out.published, key)
	}
	return url, nil
}

// discard removes the files written by one store call. Failures are
// logged and otherwise ignored.
func (a *Assembler) discard(ctx context.Context, out *storedFiles) {
	if out == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, key := range out.written {
		if err := a.files.Delete(ctx, key); err != nil {
			a.logger.Warn("discard stored file failed", "key", key, "error", err)
		}
	}
	if a.publisher != nil {
		for _, key := range out.published {
			if err := a.publisher.Remove(ctx, key); err != nil {
				a.logger.Warn("discard published object failed", "key", key, "error", err)
			}
		}
	}
	if n := len(out.written) + len(out.published); n > 0 {
		a.logger.Info("discarded files of failed request", "count", n)
	}
	out.written = nil
	out.published = nil
}

// localKey maps a stored path back to its file store key.
func (a *Assembler) localKey(stored string) (string, error) {
	if isAbsoluteURL(stored) {
		if a.publisher != nil {
			if key, ok := a.publisher.KeyFromURL(stored); ok {
				return key, nil
			}
		}
		return "", fmt.Errorf("no local copy known for %s", stored)
	}
	return a.files.KeyFromPublicPath(stored)
}

func (a *Assembler) view(ctx context.Context, rec *models.MediaRecord) (MediaView, error) {
	siteURL, err := a.options.GetValue(ctx, OptionSiteURL)
	if err != nil {
		return MediaView{}, remoteError(err)
	}
	return NewView(rec, siteURL), nil
}
