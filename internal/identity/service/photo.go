package service

import (
	"context"

	"civreg/internal/audit"
	"civreg/internal/identity/models"
	"civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	"civreg/pkg/requestcontext"
)

// MaxPhotoBytes caps the stored biometric photo size.
const MaxPhotoBytes = 5 << 20

var allowedPhotoFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
}

// AttachPhoto stores a biometric photo for an identity, replacing any photo
// already on file and bumping the biometric version.
func (s *Service) AttachPhoto(ctx context.Context, id domain.NationalID, photo []byte, format string) error {
	if len(photo) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "photo is empty")
	}
	if len(photo) > MaxPhotoBytes {
		return dErrors.Newf(dErrors.CodeBadRequest, "photo exceeds %d bytes", MaxPhotoBytes)
	}
	if !allowedPhotoFormats[format] {
		return dErrors.New(dErrors.CodeBadRequest, "photo format must be jpeg or png")
	}

	now := requestcontext.Now(ctx)
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.AttachPhoto(txCtx, id, photo, format, now); err != nil {
			return mapStoreErr(err, "identity", "")
		}
		return s.auditor.Log(txCtx, audit.OpUpdate, audit.TableBiometrics, id.String(), "biometric photo attached")
	})
}

// GetPhoto returns the biometric row for an identity. Callers check HasPhoto
// before serving the bytes.
func (s *Service) GetPhoto(ctx context.Context, id domain.NationalID) (models.Biometric, error) {
	bio, err := s.store.FindBiometric(ctx, id)
	if err != nil {
		return models.Biometric{}, mapStoreErr(err, "identity", "")
	}
	if !bio.HasPhoto {
		return models.Biometric{}, dErrors.New(dErrors.CodeNotFound, "no photo on file")
	}
	return bio, nil
}

// ClearPhoto removes the photo on file while keeping the biometric row.
func (s *Service) ClearPhoto(ctx context.Context, id domain.NationalID) error {
	now := requestcontext.Now(ctx)
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.ClearPhoto(txCtx, id, now); err != nil {
			return mapStoreErr(err, "identity", "")
		}
		return s.auditor.Log(txCtx, audit.OpUpdate, audit.TableBiometrics, id.String(), "biometric photo cleared")
	})
}
