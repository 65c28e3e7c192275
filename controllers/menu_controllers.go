package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ordering/repository"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// MenuController serves the catalog read-only.
type MenuController struct {
	Menu repository.MenuRepository
}

func NewMenuController(menu repository.MenuRepository) *MenuController {
	return &MenuController{Menu: menu}
}

func (mc *MenuController) GetMenu(c *gin.Context) {
	items, err := mc.Menu.ListAvailable(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu", items)
}

func (mc *MenuController) GetMenuByCategory(c *gin.Context) {
	items, err := mc.Menu.ListByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu", items)
}

func (mc *MenuController) GetMenuItem(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusNotFound, repository.ErrMenuItemNotFound)
		return
	}
	item, err := mc.Menu.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrMenuItemNotFound) {
			utils.RespondError(c, http.StatusNotFound, err)
			return
		}
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item", item)
}
