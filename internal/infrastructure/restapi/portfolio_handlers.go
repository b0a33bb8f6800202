package restapi

import (
	"errors"
	"net/http"
	"strings"

	"airdrop_farmer/internal/app/port"
	"airdrop_farmer/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// APIErrorResponse: тело ответа с ошибкой.
type APIErrorResponse struct {
	Error string `json:"error"`
}

// APIChainsResponse определяет структуру ответа для списка сетей.
type APIChainsResponse struct {
	Data []entity.Chain `json:"data"`
}

// APIGasResponse: цена газа в сети.
type APIGasResponse struct {
	Chain   string `json:"chain"`
	GasGwei string `json:"gasGwei"`
}

// APIBalancesResponse определяет структуру ответа для балансов адреса.
type APIBalancesResponse struct {
	Address       string                 `json:"address"`
	Data          []entity.ChainBalances `json:"data"`
	StatusMessage string                 `json:"status_message"`
}

// PortfolioHandler обрабатывает HTTP запросы к сетям и балансам.
type PortfolioHandler struct {
	portfolioService port.PortfolioService
	logger           port.Logger
}

// NewPortfolioHandler создает новый экземпляр PortfolioHandler.
func NewPortfolioHandler(ps port.PortfolioService, logger port.Logger) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: ps, logger: logger}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrChainNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrRPCFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetChainsHandler отдаёт каталог сетей.
func (h *PortfolioHandler) GetChainsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, APIChainsResponse{Data: h.portfolioService.Chains()})
}

// GetGasHandler отдаёт текущую цену газа сети в gwei.
func (h *PortfolioHandler) GetGasHandler(c *gin.Context) {
	chain := c.Param("chain")
	gwei, err := h.portfolioService.GasPriceGwei(c.Request.Context(), chain)
	if err != nil {
		h.logger.Warn("Gas price request failed", "chain", chain, "error", err)
		c.JSON(statusFor(err), APIErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, APIGasResponse{Chain: chain, GasGwei: gwei.String()})
}

// GetBalancesHandler отдаёт балансы адреса.
// Query params: ?chain=base&chain=op или ?chain=base,op; пусто = все сети.
func (h *PortfolioHandler) GetBalancesHandler(c *gin.Context) {
	address := c.Param("address")

	var chains []string
	for _, raw := range c.QueryArray("chain") {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				chains = append(chains, name)
			}
		}
	}

	balances, err := h.portfolioService.Balances(c.Request.Context(), address, chains)
	if err != nil {
		h.logger.Warn("Balances request failed", "address", address, "error", err)
		c.JSON(statusFor(err), APIErrorResponse{Error: err.Error()})
		return
	}

	failed := 0
	for _, b := range balances {
		if b.Error != "" {
			failed++
		}
	}
	response := APIBalancesResponse{Address: address, Data: balances}
	switch {
	case failed > 0 && failed == len(balances):
		response.StatusMessage = "Failed to retrieve balances on every requested chain."
	case failed > 0:
		response.StatusMessage = "Balances retrieved. Some chains encountered errors."
	default:
		response.StatusMessage = "Balances retrieved successfully."
	}
	c.JSON(http.StatusOK, response)
}
