package models

import "strings"

var userMessages = map[string]map[string]string{
	"en": {
		CodeUnauthenticated:    "Please sign in to continue.",
		CodeInvalidArgument:    "Some of the submitted data is invalid.",
		CodeNotFound:           "We couldn't find what you were looking for.",
		CodeAlreadyExists:      "This already exists.",
		CodePermissionDenied:   "You don't have permission to do that.",
		CodeFailedPrecondition: "This action isn't possible right now.",
		CodeIndexRequired:      "The service is being set up. Please try again shortly.",
		CodeInternal:           "An unknown error occurred. Please try again.",
	},
	"es": {
		CodeUnauthenticated:    "Inicia sesión para continuar.",
		CodeInvalidArgument:    "Algunos de los datos enviados no son válidos.",
		CodeNotFound:           "No encontramos lo que buscabas.",
		CodeAlreadyExists:      "Esto ya existe.",
		CodePermissionDenied:   "No tienes permiso para hacer eso.",
		CodeFailedPrecondition: "Esta acción no es posible en este momento.",
		CodeIndexRequired:      "El servicio se está configurando. Inténtalo de nuevo en breve.",
		CodeInternal:           "Se produjo un error desconocido. Inténtalo de nuevo.",
	},
}

// UserMessage returns a localized, human-readable message for an error code.
// Unknown codes and locales fall back to the English generic message.
func UserMessage(code, locale string) string {
	lang := strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(lang, "-_,;"); i >= 0 {
		lang = lang[:i]
	}
	table, ok := userMessages[lang]
	if !ok {
		table = userMessages["en"]
	}
	if msg, ok := table[code]; ok {
		return msg
	}
	return table[CodeInternal]
}
