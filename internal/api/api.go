package api

import (
	"net/http"
	"sort"
	"strconv"

	"steam-buff-tracker/internal/catalog"
	"steam-buff-tracker/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CatalogLoader 目录数据来源
type CatalogLoader interface {
	Load() ([]models.CatalogEntry, error)
}

type APIHandler struct {
	catalog CatalogLoader
	db      *gorm.DB // 可选：快照镜像
}

func SetupRoutes(r *gin.RouterGroup, loader CatalogLoader, db *gorm.DB) *APIHandler {
	handler := &APIHandler{catalog: loader, db: db}

	c := r.Group("/catalog")
	{
		c.GET("", handler.ListCatalog)
		c.GET("/search", handler.SearchCatalog)
		c.GET("/:id", handler.GetCatalogEntry)
		c.GET("/:id/trend", handler.GetCatalogTrend)
	}
	r.GET("/snapshots", handler.ListSnapshots)

	return handler
}

// ListCatalog GET /catalog?sort=ratio
func (h *APIHandler) ListCatalog(c *gin.Context) {
	entries, ok := h.load(c)
	if !ok {
		return
	}
	if c.Query("sort") == "ratio" {
		sortByLatestRatio(entries)
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "ok", "data": gin.H{"count": len(entries), "items": entries}})
}

// GetCatalogEntry GET /catalog/:id
func (h *APIHandler) GetCatalogEntry(c *gin.Context) {
	id, err := catalog.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entries, ok := h.load(c)
	if !ok {
		return
	}
	entry, found := catalog.Find(entries, id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "物品不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "ok", "data": entry})
}

// GetCatalogTrend GET /catalog/:id/trend
func (h *APIHandler) GetCatalogTrend(c *gin.Context) {
	id, err := catalog.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entries, ok := h.load(c)
	if !ok {
		return
	}
	entry, found := catalog.Find(entries, id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "物品不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "ok", "data": catalog.RatioTrend(entry)})
}

// SearchCatalog GET /catalog/search?name=
func (h *APIHandler) SearchCatalog(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name 不能为空"})
		return
	}
	entries, ok := h.load(c)
	if !ok {
		return
	}
	items := catalog.Search(entries, name)
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "ok", "data": gin.H{"count": len(items), "items": items}})
}

// ListSnapshots GET /snapshots?name=&limit= reads the MySQL mirror.
func (h *APIHandler) ListSnapshots(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "数据库未配置"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > 1000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit 参数错误"})
		return
	}

	q := h.db.Model(&models.PriceSnapshotRow{}).Order("observed_at DESC").Limit(limit)
	if name := c.Query("name"); name != "" {
		q = q.Where("name = ?", name)
	}
	var rows []models.PriceSnapshotRow
	if err := q.Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询快照失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "ok", "data": gin.H{"count": len(rows), "items": rows}})
}

func (h *APIHandler) load(c *gin.Context) ([]models.CatalogEntry, bool) {
	entries, err := h.catalog.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取数据失败: " + err.Error()})
		return nil, false
	}
	return entries, true
}

// entries without history sort last
func sortByLatestRatio(entries []models.CatalogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, okA := entries[i].Latest()
		b, okB := entries[j].Latest()
		if okA != okB {
			return okA
		}
		return a.Ratio > b.Ratio
	})
}
