package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ByLCY/labelkit/delivery"
	"github.com/ByLCY/labelkit/label"
	"github.com/ByLCY/labelkit/order"
)

// Response is the JSON body returned to the webhook sender.
type Response struct {
	Received bool     `json:"received"`
	Order    string   `json:"order,omitempty"`
	Labels   int      `json:"labels"`
	Files    int      `json:"files"`
	Uploaded int      `json:"uploaded"`
	Failures []string `json:"failures,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// Handler 接收订单 webhook：校验签名、解析订单、渲染标签并投递到订单目录。
type Handler struct {
	secret   string
	maxBody  int64
	timeout  time.Duration
	adapter  *order.Adapter
	pipeline *label.Pipeline
	sink     delivery.Sink
	logger   *zap.Logger
}

// Options configures a Handler.
type Options struct {
	Secret       string // 为空时不校验签名，仅用于本地调试
	MaxBodyBytes int64
	Timeout      time.Duration
	Adapter      *order.Adapter
	Pipeline     *label.Pipeline
	Sink         delivery.Sink
	Logger       *zap.Logger
}

// NewHandler creates a webhook handler.
func NewHandler(opts Options) *Handler {
	h := &Handler{
		secret:   opts.Secret,
		maxBody:  opts.MaxBodyBytes,
		timeout:  opts.Timeout,
		adapter:  opts.Adapter,
		pipeline: opts.Pipeline,
		sink:     opts.Sink,
		logger:   opts.Logger,
	}
	if h.maxBody <= 0 {
		h.maxBody = 1 << 20
	}
	if h.timeout <= 0 {
		h.timeout = time.Minute
	}
	if h.adapter == nil {
		h.adapter = order.NewAdapter(order.Keys{})
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

// HandleOrder 处理 POST 订单 webhook。
//
// 签名无效返回 401，请求体过大返回 413，订单无法解析返回 400。
// 单张标签的校验或渲染失败只记录在响应的 failures 中，不影响其余标签，状态仍为 200；
// 订单目录无法创建时返回 502，让发送方稍后重试。
func (h *Handler) HandleOrder(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxBody+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Message: "读取请求体失败"})
		return
	}
	if int64(len(payload)) > h.maxBody {
		c.JSON(http.StatusRequestEntityTooLarge, Response{Message: "请求体过大"})
		return
	}
	if h.secret != "" && !VerifySignature(payload, c.GetHeader(SignatureHeader), h.secret) {
		h.logger.Warn("webhook 签名校验失败", zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, Response{Message: "签名无效"})
		return
	}

	o, err := order.Parse(payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Message: err.Error()})
		return
	}
	log := h.logger.With(zap.String("order", o.Name), zap.String("order_id", o.ID.String()))

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := Response{Received: true, Order: o.Name}
	configs, itemErrs := h.adapter.Labels(o)
	resp.Labels = len(configs)
	for _, err := range itemErrs {
		resp.Failures = append(resp.Failures, err.Error())
	}
	if len(configs) == 0 {
		resp.Message = "订单中没有标签商品"
		c.JSON(http.StatusOK, resp)
		return
	}

	jobs, renderErrs := h.pipeline.RenderAll(ctx, configs)
	resp.Files = len(jobs)
	for _, err := range renderErrs {
		resp.Failures = append(resp.Failures, err.Error())
	}

	if h.sink != nil {
		rep, err := delivery.Deliver(ctx, h.sink, o.Folder(), jobs, log)
		if err != nil {
			log.Error("投递标签失败", zap.Error(err))
			resp.Message = err.Error()
			status := http.StatusBadGateway
			if errors.Is(err, context.DeadlineExceeded) {
				status = http.StatusGatewayTimeout
			}
			c.JSON(status, resp)
			return
		}
		resp.Uploaded = len(rep.Uploaded)
		for _, err := range rep.Failed {
			resp.Failures = append(resp.Failures, err.Error())
		}
	}

	log.Info("订单标签处理完成",
		zap.Int("labels", resp.Labels),
		zap.Int("files", resp.Files),
		zap.Int("uploaded", resp.Uploaded),
		zap.Int("failures", len(resp.Failures)),
	)
	c.JSON(http.StatusOK, resp)
}
