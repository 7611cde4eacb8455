package service

import (
	"errors"
	"fmt"

	"cantine/internal/models"
)

// ErrorKind classifies a rejected operation.
type ErrorKind string

const (
	// KindDayClosed covers both a date with no open calendar entry and a
	// date whose till has been sealed.
	KindDayClosed        ErrorKind = "day_closed"
	KindQuotaExceeded    ErrorKind = "quota_exceeded"
	KindCapacityExceeded ErrorKind = "capacity_exceeded"
	KindNotFound         ErrorKind = "not_found"
	KindStorage          ErrorKind = "storage_unavailable"
)

// DomainError is a typed rejection. Message is operator-facing French
// text suitable for direct display, matching what the cafeteria staff has
// always seen on screen.
type DomainError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

// AsDomain extracts a DomainError if err carries one.
func AsDomain(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func errDayNotOpen(display string) error {
	return &DomainError{
		Kind:    KindDayClosed,
		Message: fmt.Sprintf("Le %s est fermé, impossible de réserver.", display),
	}
}

func errQuota(display string) error {
	return &DomainError{
		Kind:    KindQuotaExceeded,
		Message: fmt.Sprintf("Quota de %d atteint pour le %s.", models.MaxReservations, display),
	}
}

func errTillClosed(display string) error {
	return &DomainError{
		Kind:    KindDayClosed,
		Message: fmt.Sprintf("Caisse fermée pour %s.", display),
	}
}

func errCapacity(header string) error {
	return &DomainError{
		Kind:    KindCapacityExceeded,
		Message: fmt.Sprintf("Limite de %d menus servis atteinte pour %s.", models.MaxMenus, header),
	}
}

func errNotFound(name, display string) error {
	return &DomainError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("Pas de réservation trouvée pour %q le %s.", name, display),
	}
}

func errStorage(err error) error {
	return &DomainError{
		Kind:    KindStorage,
		Message: "Le stockage est momentanément indisponible, réessayez.",
		Err:     err,
	}
}
