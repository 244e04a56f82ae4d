// Package embedded registers every built-in format module with the default
// registry. Import it for side effects.
package embedded

import (
	// Format modules register themselves in init.
	_ "github.com/FocuswithJustin/docbridge/internal/formats/csv"
	_ "github.com/FocuswithJustin/docbridge/internal/formats/docx"
	_ "github.com/FocuswithJustin/docbridge/internal/formats/html"
	_ "github.com/FocuswithJustin/docbridge/internal/formats/json"
	_ "github.com/FocuswithJustin/docbridge/internal/formats/markdown"
	_ "github.com/FocuswithJustin/docbridge/internal/formats/ods"
	_ "github.com/FocuswithJustin/docbridge/internal/formats/pdf"
	_ "github.com/FocuswithJustin/docbridge/internal/formats/rtf"
	_ "github.com/FocuswithJustin/docbridge/internal/formats/text"
	_ "github.com/FocuswithJustin/docbridge/internal/formats/typst"
	_ "github.com/FocuswithJustin/docbridge/internal/formats/xls"
	_ "github.com/FocuswithJustin/docbridge/internal/formats/xlsx"
	_ "github.com/FocuswithJustin/docbridge/internal/formats/xml"
)
