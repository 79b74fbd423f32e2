package errors

import (
	stderrors "errors"

	"github.com/levrixhq/levrix/pkg/domain"
)

func asDomain(err error, target **domain.DomainError) bool {
	return stderrors.As(err, target)
}
