package web

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/textimport/internal/core"
	"github.com/JonMunkholm/textimport/internal/layout"
	"github.com/JonMunkholm/textimport/internal/logging"
)

// maxFormValue bounds each form field sent ahead of the file part.
const maxFormValue = 1 << 10

// importInput is the text to import plus the options sent with it.
type importInput struct {
	body   io.Reader
	params url.Values
}

// readInput limits the request body and locates the text to import.
//
// A multipart request carries the text in its "file" part; form fields sent
// before that part are merged over the query parameters. Any other request
// carries the text as its raw body. The multipart body is streamed, never
// buffered whole.
func (s *Server) readInput(w http.ResponseWriter, r *http.Request) (*importInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxBodySize)
	in := &importInput{body: r.Body, params: r.URL.Query()}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return in, nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("read multipart: %w", err)
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, errNoInput
		}
		if err != nil {
			return nil, fmt.Errorf("read multipart: %w", err)
		}
		if part.FormName() == "file" {
			in.body = part
			return in, nil
		}
		if err := readFormValue(part, in.params); err != nil {
			return nil, err
		}
	}
}

func readFormValue(part *multipart.Part, params url.Values) error {
	defer part.Close()
	b, err := io.ReadAll(io.LimitReader(part, maxFormValue+1))
	if err != nil {
		return fmt.Errorf("read form field %s: %w", part.FormName(), err)
	}
	if len(b) > maxFormValue {
		return fmt.Errorf("form field %s exceeds %d bytes", part.FormName(), maxFormValue)
	}
	if v := string(b); v != "" {
		params.Set(part.FormName(), v)
	}
	return nil
}

// optionParams are the request parameters that override import options.
var optionParams = []string{"delimiter", "has_header", "auto_truncate", "blank_rows", "data_errors", "encoding"}

// importer builds the importer for a request. A "layout" parameter selects a
// named layout; otherwise the configured defaults apply and columns are not
// declared. Option parameters override either source.
func (s *Server) importer(r *http.Request, params url.Values) (*core.Importer, string, error) {
	name := params.Get("layout")

	var (
		spec  layout.OptionsSpec
		cols  []*core.Column
		fixed bool
	)
	if name != "" {
		l, ok := s.layouts.Get(name)
		if !ok {
			return nil, name, fmt.Errorf("%w %q", errUnknownLayout, name)
		}
		var err error
		if cols, err = l.BuildColumns(core.DefaultConverters()); err != nil {
			return nil, name, err
		}
		spec = l.OptionsSpec
		fixed = l.Format == layout.FormatFixed
		name = l.Name
	} else {
		spec = layout.OptionsSpec{
			Delimiter:    s.cfg.Import.Delimiter,
			HasHeader:    s.cfg.Import.HasHeader,
			AutoTruncate: s.cfg.Import.AutoTruncate,
			BlankRows:    s.cfg.Import.BlankRows,
			DataErrors:   s.cfg.Import.DataErrors,
			Encoding:     s.cfg.Import.Encoding,
		}
	}
	if spec.MaxLineLength == 0 {
		spec.MaxLineLength = s.cfg.Import.MaxLineLength
	}

	for _, key := range optionParams {
		if !params.Has(key) {
			continue
		}
		v := params.Get(key)
		switch key {
		case "delimiter":
			spec.Delimiter = v
		case "has_header":
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, name, fmt.Errorf("has_header %q: %w", v, core.ErrUnknownOption)
			}
			spec.HasHeader = b
		case "auto_truncate":
			spec.AutoTruncate = v
		case "blank_rows":
			spec.BlankRows = v
		case "data_errors":
			spec.DataErrors = v
		case "encoding":
			spec.Encoding = v
		}
	}

	opts, err := layout.ParseOptions(spec)
	if err != nil {
		return nil, name, err
	}

	imp := &core.Importer{
		Columns:    cols,
		FixedWidth: fixed,
		Logger:     logging.FromContext(r.Context()).With("layout", name),
	}
	opts.Apply(imp)
	return imp, name, nil
}
