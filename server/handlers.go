package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/poiesic/geofind/core"
	"github.com/poiesic/geofind/export"
	"github.com/poiesic/geofind/search"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type pageData struct {
	City       string
	TopK       int
	MaxTopK    int
	Advanced   bool
	JSON       bool
	Resolution *core.Resolution
	JSONText   string
	Error      string
}

func (s *Server) index(c echo.Context) error {
	return s.render(c, http.StatusOK, pageData{TopK: s.topK, MaxTopK: s.maxTopK})
}

func (s *Server) submit(c echo.Context) error {
	data := pageData{
		City:     strings.TrimSpace(c.FormValue("city")),
		TopK:     s.topK,
		MaxTopK:  s.maxTopK,
		Advanced: isChecked(c.FormValue("adv_spell_check")),
		JSON:     isChecked(c.FormValue("output_dict_json")),
	}

	topK, err := s.parseTopK(c.FormValue("top_k"))
	if err != nil {
		data.Error = err.Error()
		return s.render(c, http.StatusBadRequest, data)
	}
	data.TopK = topK

	res, err := s.finder.Find(c.Request().Context(), search.Query{
		Text:               data.City,
		TopK:               topK,
		AdvancedSpellCheck: data.Advanced,
	})
	if err != nil {
		var he *echo.HTTPError
		if !errors.As(toHTTPError(err), &he) {
			return err
		}
		data.Error = err.Error()
		return s.render(c, he.Code, data)
	}
	data.Resolution = res

	if data.JSON {
		var buf bytes.Buffer
		if err := export.WriteJSON(&buf, res.Matches); err != nil {
			return err
		}
		data.JSONText = buf.String()
	}
	return s.render(c, http.StatusOK, data)
}

func (s *Server) render(c echo.Context, code int, data pageData) error {
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	return c.HTMLBlob(code, buf.Bytes())
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"cities": s.finder.Len(),
	})
}

func (s *Server) search(c echo.Context) error {
	res, err := s.find(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) exportXLSX(c echo.Context) error {
	res, err := s.find(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, res.Matches); err != nil {
		return err
	}
	name := export.FileName(res.Corrected) + ".xlsx"
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// find runs the query described by the city, top_k and advanced parameters.
func (s *Server) find(c echo.Context) (*core.Resolution, error) {
	topK, err := s.parseTopK(c.QueryParam("top_k"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	advanced, err := parseBool(c.QueryParam("advanced"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "advanced must be a boolean")
	}

	res, err := s.finder.Find(c.Request().Context(), search.Query{
		Text:               c.QueryParam("city"),
		TopK:               topK,
		AdvancedSpellCheck: advanced,
	})
	if err != nil {
		return nil, toHTTPError(err)
	}
	return res, nil
}

func (s *Server) suggest(c echo.Context) error {
	limit := defaultSuggestLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(n, maxSuggestLimit)
	}
	return c.JSON(http.StatusOK, map[string][]string{
		"suggestions": s.finder.Suggest(c.QueryParam("q"), limit),
	})
}

func (s *Server) nearest(c echo.Context) error {
	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "lat must be a number")
	}
	lon, err := strconv.ParseFloat(c.QueryParam("lon"), 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "lon must be a number")
	}
	k, err := s.parseTopK(c.QueryParam("k"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	matches, err := s.finder.Nearest(lat, lon, k)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, matches)
}

// parseTopK reads a match count. Empty means the default and values above
// the limit are clamped.
func (s *Server) parseTopK(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.topK, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("top_k must be a positive integer, got %q", raw)
	}
	return min(n, s.maxTopK), nil
}

func parseBool(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	if isChecked(raw) {
		return true, nil
	}
	return strconv.ParseBool(raw)
}

// isChecked reports whether an HTML checkbox value is set.
func isChecked(v string) bool {
	return v == "on" || v == "1" || strings.EqualFold(v, "true")
}
