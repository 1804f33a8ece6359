// This file holds the admin console: table introspection, row CRUD on the
// allow-listed tables and the raw SQL runner. Every route here sits behind
// RequireAdmin. Store errors are returned verbatim since the console is an
// operator tool.

package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/online-movie-api/internal/apperror"
    "github.com/iliyamo/online-movie-api/internal/logging"
    "github.com/iliyamo/online-movie-api/internal/model"
    "github.com/iliyamo/online-movie-api/internal/repository"
)

// AdminStore is the admin console's access to the allow-listed tables.
type AdminStore interface {
    Read(ctx context.Context, table, search string) (model.TableInfo, []map[string]any, error)
    Insert(ctx context.Context, table string, record map[string]any) (int64, error)
    Update(ctx context.Context, table string, keyValues, updates map[string]any) (int64, error)
    Delete(ctx context.Context, table string, keyValues map[string]any) (int64, error)
    RawQuery(ctx context.Context, query string) (any, error)
}

type AdminHandler struct {
    Store AdminStore
}

// tableView is the table description with its rows flattened alongside.
type tableView struct {
    model.TableInfo
    Rows []map[string]any `json:"rows"`
}

type updateReq struct {
    PrimaryKeyValues map[string]any `json:"primaryKeyValues"`
    Updates          map[string]any `json:"updates"`
}

type runQueryReq struct {
    Query string `json:"query"`
}

// Tables lists the tables the console may touch.
func (h *AdminHandler) Tables(c echo.Context) error {
    return c.JSON(http.StatusOK, repository.AllowedTables)
}

func (h *AdminHandler) ReadTable(c echo.Context) error {
    table := c.Param("tableName")
    info, rows, err := h.Store.Read(c.Request().Context(), table, c.QueryParam("search"))
    if err != nil {
        return respondStoreError(c, err, "Failed to fetch data for "+table)
    }
    if rows == nil {
        rows = []map[string]any{}
    }
    return c.JSON(http.StatusOK, tableView{TableInfo: info, Rows: rows})
}

func (h *AdminHandler) InsertRow(c echo.Context) error {
    table := c.Param("tableName")
    if err := repository.CheckTable(table); err != nil {
        return respondError(c, err, "")
    }
    record := map[string]any{}
    if err := bindBody(c, &record); err != nil {
        return respondError(c, err, "")
    }
    id, err := h.Store.Insert(c.Request().Context(), table, record)
    if err != nil {
        return respondStoreError(c, err, "Failed to add record to "+table)
    }
    return c.JSON(http.StatusCreated, echo.Map{"message": "Record added successfully", "insertId": id})
}

func (h *AdminHandler) UpdateRow(c echo.Context) error {
    table := c.Param("tableName")
    if err := repository.CheckTable(table); err != nil {
        return respondError(c, err, "")
    }
    var req updateReq
    if err := bindBody(c, &req); err != nil {
        return respondError(c, err, "")
    }
    affected, err := h.Store.Update(c.Request().Context(), table, req.PrimaryKeyValues, req.Updates)
    if err != nil {
        return respondStoreError(c, err, "Failed to update record in "+table)
    }
    logging.FromContext(c.Request().Context()).Info().
        Str("table", table).Interface("key", req.PrimaryKeyValues).Int64("affected", affected).
        Msg("admin update")
    if affected == 0 {
        return respondError(c, apperror.NotFound("Record not found or no changes made."), "")
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Record updated successfully"})
}

// DeleteRow takes the key columns as the whole request body.
func (h *AdminHandler) DeleteRow(c echo.Context) error {
    table := c.Param("tableName")
    if err := repository.CheckTable(table); err != nil {
        return respondError(c, err, "")
    }
    key := map[string]any{}
    if err := bindBody(c, &key); err != nil {
        return respondError(c, err, "")
    }
    affected, err := h.Store.Delete(c.Request().Context(), table, key)
    if err != nil {
        return respondStoreError(c, err, "Failed to delete record from "+table)
    }
    logging.FromContext(c.Request().Context()).Info().
        Str("table", table).Interface("key", key).Int64("affected", affected).
        Msg("admin delete")
    if affected == 0 {
        return respondError(c, apperror.NotFound("Record not found."), "")
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Record deleted successfully"})
}

// RunQuery executes arbitrary SQL. Admin only, and deliberately so.
func (h *AdminHandler) RunQuery(c echo.Context) error {
    var req runQueryReq
    if err := bindBody(c, &req); err != nil {
        return respondError(c, err, "")
    }
    log := logging.FromContext(c.Request().Context())
    log.Warn().Str("query", req.Query).Msg("running raw SQL query")

    out, err := h.Store.RawQuery(c.Request().Context(), req.Query)
    if err != nil {
        log.Error().Err(err).Msg("raw SQL query failed")
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    return c.JSON(http.StatusOK, out)
}

// respondStoreError is respondError for the console: unclassified errors
// keep their text in the 500 body.
func respondStoreError(c echo.Context, err error, fallback string) error {
    if _, ok := apperror.HTTPStatus(err); ok {
        return respondError(c, err, fallback)
    }
    logging.FromContext(c.Request().Context()).Error().Err(err).Msg(fallback)
    msg := err.Error()
    if msg == "" {
        msg = fallback
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}
