// Ошибки, общие для всех репозиториев. Сервисы сравнивают их через errors.Is.
package repository

import "errors"

// ErrNotFound: записи нет (или она уже удалена).
var ErrNotFound = errors.New("not found")

// ErrDuplicate: запись с таким ключом уже существует.
var ErrDuplicate = errors.New("duplicate key")
