package web

import "embed"

// Templates embeds HTML pages and mail templates.
//
//go:embed templates/layouts/*.html templates/pages/*.html templates/mail/*.tmpl
var Templates embed.FS
