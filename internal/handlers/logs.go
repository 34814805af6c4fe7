package handlers

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	helpers "jackpoints/internal/utils/helpers"
)

// AdminLogsHandler отдаёт JSON-логи сервиса за день: текущий app.log
// и ротированные lumberjack файлы app-<timestamp>.log[.gz].
// Нужен, чтобы по request_id найти, что случилось со сбросом пароля или пачкой транзакций.
type AdminLogsHandler struct {
	LogDir    string
	Retention int // дней
	now       func() time.Time
	loc       *time.Location // в какой зоне считаются дни
}

func NewAdminLogsHandler(logDir string) *AdminLogsHandler {
	return &AdminLogsHandler{LogDir: logDir, Retention: 7, now: time.Now, loc: time.Local}
}

// lumberjack без LocalTime пишет в имя бэкапа время ротации в UTC
const rotatedLayout = "2006-01-02T15-04-05.000"

// rotatedDay возвращает день ротации бэкапа app-<ts>.log[.gz] в зоне loc.
func rotatedDay(name string, loc *time.Location) (string, bool) {
	ts, ok := strings.CutPrefix(name, "app-")
	if !ok {
		return "", false
	}
	switch {
	case strings.HasSuffix(ts, ".log.gz"):
		ts = strings.TrimSuffix(ts, ".log.gz")
	case strings.HasSuffix(ts, ".log"):
		ts = strings.TrimSuffix(ts, ".log")
	default:
		return "", false
	}
	t, err := time.ParseInLocation(rotatedLayout, ts, time.UTC)
	if err != nil {
		return "", false
	}
	return t.In(loc).Format(time.DateOnly), true
}

var reDay = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ListDays godoc
// @Summary      Доступные дни логов
// @Tags         admin
// @Security     ApiKeyAuth
// @Produce      json
// @Success      200 {object} map[string][]string "days"
// @Router       /api/admin/logs/days [get]
func (h *AdminLogsHandler) ListDays(w http.ResponseWriter, r *http.Request) {
	today := h.now().In(h.loc)
	days := []string{}
	for i := 0; i < h.Retention; i++ {
		d := today.AddDate(0, 0, -i).Format(time.DateOnly)
		if files, err := h.filesForDay(d); err == nil && len(files) > 0 {
			days = append(days, d)
		}
	}
	sort.Strings(days)
	helpers.JSON(w, http.StatusOK, map[string]any{"days": days})
}

// GetLogs godoc
// @Summary      Логи за день
// @Description  Фильтры по уровню, request_id, user_id и подстроке. Пагинация курсором по номеру строки.
// @Tags         admin
// @Security     ApiKeyAuth
// @Produce      json
// @Param        day        query string true  "Дата (YYYY-MM-DD)"
// @Param        level      query string false "CSV уровней: debug,info,warn,error"
// @Param        request_id query string false "X-Request-ID запроса"
// @Param        user_id    query string false "ID пользователя"
// @Param        q          query string false "Поиск по подстроке"
// @Param        limit      query int    false "Лимит (по умолч. 200, макс. 1000)"
// @Param        cursor     query int    false "Номер строки, с которой продолжить"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Router       /api/admin/logs [get]
func (h *AdminLogsHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	day := q.Get("day")
	if !reDay.MatchString(day) {
		helpers.Error(w, http.StatusBadRequest, "bad day")
		return
	}

	levels := map[string]bool{}
	for _, l := range parseCSV(q.Get("level")) {
		levels[strings.ToUpper(l)] = true
	}
	requestID := strings.TrimSpace(q.Get("request_id"))
	userID := strings.TrimSpace(q.Get("user_id"))
	needle := strings.ToLower(strings.TrimSpace(q.Get("q")))
	limit := clampAtoi(q.Get("limit"), 200, 1, 1000)
	cursor := clampAtoi(q.Get("cursor"), 0, 0, 10_000_000)

	files, err := h.filesForDay(day)
	if err != nil || len(files) == 0 {
		helpers.Error(w, http.StatusNotFound, "day not found")
		return
	}

	type entry struct {
		Level     string `json:"level"`
		RequestID string `json:"request_id"`
		UserID    string `json:"user_id"`
	}

	lineNo := 0
	items := []json.RawMessage{}
	for _, path := range files {
		if len(items) >= limit {
			break
		}
		_ = scanLines(path, func(raw []byte) bool {
			lineNo++
			if lineNo <= cursor {
				return true
			}
			if needle != "" && !strings.Contains(strings.ToLower(string(raw)), needle) {
				return true
			}
			var e entry
			if err := json.Unmarshal(raw, &e); err != nil {
				return true
			}
			if len(levels) > 0 && !levels[strings.ToUpper(e.Level)] {
				return true
			}
			if requestID != "" && e.RequestID != requestID {
				return true
			}
			if userID != "" && e.UserID != userID {
				return true
			}
			items = append(items, append(json.RawMessage{}, raw...))
			return len(items) < limit
		})
	}

	helpers.JSON(w, http.StatusOK, map[string]any{
		"day":        day,
		"items":      items,
		"nextCursor": lineNo,
	})
}

// filesForDay: бэкапы, ротированные в этот день по локальному времени, app.log только для сегодня.
func (h *AdminLogsHandler) filesForDay(day string) ([]string, error) {
	entries, err := os.ReadDir(h.LogDir)
	if err != nil {
		return nil, err
	}
	today := h.now().In(h.loc).Format(time.DateOnly)

	var rotated []string
	current := ""
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case name == "app.log":
			if day == today {
				current = filepath.Join(h.LogDir, name)
			}
		default:
			if d, ok := rotatedDay(name, h.loc); ok && d == day {
				rotated = append(rotated, filepath.Join(h.LogDir, name))
			}
		}
	}

	// в имени lumberjack timestamp, лексикографический порядок = хронологический
	sort.Strings(rotated)
	if current != "" {
		rotated = append(rotated, current)
	}
	return rotated, nil
}

func scanLines(path string, handle func([]byte) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer gz.Close()
		reader = gz
	}

	sc := bufio.NewScanner(reader)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if !handle(sc.Bytes()) {
			break
		}
	}
	return sc.Err()
}
