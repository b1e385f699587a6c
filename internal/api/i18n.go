package api

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// I18nManager resolves message keys into the response language.
type I18nManager struct {
	messages map[string]map[string]string // lang -> key -> message
}

var defaultI18nManager *I18nManager

func init() {
	defaultI18nManager = NewI18nManager()
	defaultI18nManager.LoadMessages("en", map[string]string{
		"error.task_not_found":         "Task not found",
		"error.user_not_found":         "User not found",
		"error.title_required":         "Task title is required",
		"error.created_by_required":    "created_by is required",
		"error.invalid_status":         "Invalid task status",
		"error.invalid_priority":       "Invalid task priority",
		"error.invalid_due_date":       "Invalid due date",
		"error.invalid_hours":          "Hours must be a positive number",
		"error.assignment_not_allowed": "You are not allowed to assign this task to that user",
		"error.hours_required":         "Hours must be logged before the task can be marked as done",
		"error.bad_request":            "Bad request",
		"error.unauthorized":           "Unauthorized",
		"error.internal_error":         "Internal server error",
		"error.route_not_found":        "The requested route does not exist",
	})
	defaultI18nManager.LoadMessages("he", map[string]string{
		"error.task_not_found":         "המשימה לא נמצאה",
		"error.user_not_found":         "המשתמש לא נמצא",
		"error.title_required":         "כותרת המשימה היא שדה חובה",
		"error.created_by_required":    "שדה היוצר הוא חובה",
		"error.invalid_status":         "סטטוס משימה לא חוקי",
		"error.invalid_priority":       "עדיפות משימה לא חוקית",
		"error.invalid_due_date":       "תאריך יעד לא חוקי",
		"error.invalid_hours":          "מספר השעות חייב להיות חיובי",
		"error.assignment_not_allowed": "אין לך הרשאה לשייך את המשימה למשתמש זה",
		"error.hours_required":         "יש לרשום שעות עבודה לפני סימון המשימה כהושלמה",
		"error.bad_request":            "בקשה שגויה",
		"error.unauthorized":           "לא מורשה",
		"error.internal_error":         "שגיאת שרת פנימית",
		"error.route_not_found":        "הנתיב המבוקש לא קיים",
	})
}

// NewI18nManager creates an empty i18n manager.
func NewI18nManager() *I18nManager {
	return &I18nManager{
		messages: make(map[string]map[string]string),
	}
}

// LoadMessages loads a language bundle.
func (m *I18nManager) LoadMessages(lang string, messages map[string]string) {
	m.messages[lang] = messages
}

// Translate resolves a key, falling back to English, then to the key itself.
func (m *I18nManager) Translate(lang, key string) string {
	if messages, ok := m.messages[lang]; ok {
		if message, ok := messages[key]; ok {
			return message
		}
	}
	if lang != "en" {
		if messages, ok := m.messages["en"]; ok {
			if message, ok := messages[key]; ok {
				return message
			}
		}
	}
	return key
}

// I18nMiddleware detects the response language from the lang query
// parameter or the Accept-Language header.
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := "en"

		if queryLang := c.Query("lang"); queryLang != "" {
			lang = normalizeLanguage(queryLang)
		} else if headerLang := c.GetHeader("Accept-Language"); headerLang != "" {
			lang = parseAcceptLanguage(headerLang)
		}

		c.Set("language", lang)
		c.Next()
	}
}

// GetLanguage reads the detected language from the context.
func GetLanguage(c *gin.Context) string {
	if lang, exists := c.Get("language"); exists {
		if l, ok := lang.(string); ok {
			return l
		}
	}
	return "en"
}

// T translates a key using the default manager.
func T(c *gin.Context, key string) string {
	return defaultI18nManager.Translate(GetLanguage(c), key)
}

// normalizeLanguage maps language codes onto the supported bundles.
func normalizeLanguage(lang string) string {
	lang = strings.ToLower(lang)
	// "iw" is the legacy ISO code for Hebrew still sent by some clients.
	if lang == "iw" || strings.HasPrefix(lang, "he") {
		return "he"
	}
	if strings.HasPrefix(lang, "en") {
		return "en"
	}
	return lang
}

// parseAcceptLanguage takes the first language from an Accept-Language
// header like "he-IL,he;q=0.9,en;q=0.8".
func parseAcceptLanguage(header string) string {
	parts := strings.Split(header, ",")
	if len(parts) > 0 {
		lang := strings.TrimSpace(parts[0])
		if idx := strings.Index(lang, ";"); idx != -1 {
			lang = lang[:idx]
		}
		return normalizeLanguage(lang)
	}
	return "en"
}
