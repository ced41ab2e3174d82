package handler

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rl1809/pos/internal/core/domain"
	"github.com/rl1809/pos/internal/core/receipt"
)

const checkoutServiceName = "pos.v1.Checkout"

type AddItemRPCRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type RemoveItemRPCRequest struct {
	ProductID string `json:"product_id"`
}

type CheckoutRPCRequest struct {
	RequestID string `json:"request_id"`
}

type GetTicketRPCRequest struct {
	TicketID string `json:"ticket_id"`
}

type CartRPCResponse struct {
	Cart CartDTO `json:"cart"`
}

type CheckoutRPCResponse struct {
	Success   bool             `json:"success"`
	Message   string           `json:"message"`
	State     string           `json:"state,omitempty"`
	TicketID  string           `json:"ticket_id,omitempty"`
	Shortages []ShortageDTO    `json:"shortages,omitempty"`
	Receipt   *receipt.Receipt `json:"receipt,omitempty"`
}

type TicketRPCResponse struct {
	Ticket  TicketDTO       `json:"ticket"`
	Receipt receipt.Receipt `json:"receipt"`
}

// CheckoutServer is the till-facing RPC surface.
type CheckoutServer interface {
	AddItem(context.Context, *AddItemRPCRequest) (*CartRPCResponse, error)
	RemoveItem(context.Context, *RemoveItemRPCRequest) (*CartRPCResponse, error)
	Checkout(context.Context, *CheckoutRPCRequest) (*CheckoutRPCResponse, error)
	GetTicket(context.Context, *GetTicketRPCRequest) (*TicketRPCResponse, error)
}

type GRPCHandler struct {
	Services
	presenter *receipt.Presenter
	logger    log.FieldLogger
}

func NewGRPCHandler(services Services, presenter *receipt.Presenter, logger log.FieldLogger) *GRPCHandler {
	return &GRPCHandler{Services: services, presenter: presenter, logger: logger}
}

func RegisterCheckoutServer(s grpc.ServiceRegistrar, srv CheckoutServer) {
	s.RegisterService(&checkoutServiceDesc, srv)
}

func (h *GRPCHandler) AddItem(ctx context.Context, req *AddItemRPCRequest) (*CartRPCResponse, error) {
	p, err := h.caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.ProductID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing product_id")
	}
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}

	c, err := h.Carts.AddItem(ctx, p.ID, req.ProductID, qty)
	if err != nil {
		return nil, toStatus(err)
	}
	return &CartRPCResponse{Cart: toCartDTO(c)}, nil
}

func (h *GRPCHandler) RemoveItem(ctx context.Context, req *RemoveItemRPCRequest) (*CartRPCResponse, error) {
	p, err := h.caller(ctx)
	if err != nil {
		return nil, err
	}

	c, err := h.Carts.RemoveItem(ctx, p.ID, req.ProductID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &CartRPCResponse{Cart: toCartDTO(c)}, nil
}

// Checkout reports business outcomes in the response body; only transport,
// identity and argument problems are returned as status errors.
func (h *GRPCHandler) Checkout(ctx context.Context, req *CheckoutRPCRequest) (*CheckoutRPCResponse, error) {
	p, err := h.caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.RequestID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing request_id")
	}

	ticket, err := h.Carts.Checkout(ctx, p.ID, req.RequestID)
	if err != nil {
		_, resp := errorResponse(err)
		h.logger.WithError(err).WithField("seller_id", p.ID).Warn("rpc checkout failed")
		return &CheckoutRPCResponse{
			Success:   false,
			Message:   resp.Message,
			State:     resp.State,
			TicketID:  resp.TicketID,
			Shortages: resp.Shortages,
		}, nil
	}

	r := h.presenter.Present(*ticket)
	return &CheckoutRPCResponse{
		Success:  true,
		Message:  "sale completed",
		TicketID: ticket.ID,
		Receipt:  &r,
	}, nil
}

func (h *GRPCHandler) GetTicket(ctx context.Context, req *GetTicketRPCRequest) (*TicketRPCResponse, error) {
	p, err := h.caller(ctx, domain.RoleAdmin, domain.RoleCashier)
	if err != nil {
		return nil, err
	}

	t, err := h.History.GetTicket(ctx, *p, req.TicketID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &TicketRPCResponse{Ticket: toTicketDTO(*t), Receipt: h.presenter.Present(*t)}, nil
}

// caller resolves the user-id metadata entry. Without explicit roles the
// cart roles apply.
func (h *GRPCHandler) caller(ctx context.Context, roles ...domain.Role) (*domain.Profile, error) {
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleAdmin, domain.RoleCashier}
	}

	var userID string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(userIDMetadata); len(ids) > 0 {
			userID = ids[0]
		}
	}

	p, err := h.Users.Profile(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := h.Users.Authorize(*p, roles...); err != nil {
		return nil, toStatus(err)
	}
	return p, nil
}

func toStatus(err error) error {
	code, resp := errorResponse(err)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}

	switch code {
	case http.StatusBadRequest:
		return status.Error(codes.InvalidArgument, resp.Message)
	case http.StatusUnauthorized:
		return status.Error(codes.Unauthenticated, resp.Message)
	case http.StatusForbidden:
		return status.Error(codes.PermissionDenied, resp.Message)
	case http.StatusNotFound:
		return status.Error(codes.NotFound, resp.Message)
	case http.StatusConflict:
		return status.Error(codes.AlreadyExists, resp.Message)
	case http.StatusUnprocessableEntity:
		return status.Error(codes.FailedPrecondition, resp.Message)
	case http.StatusServiceUnavailable:
		return status.Error(codes.Unavailable, resp.Message)
	default:
		return status.Error(codes.Internal, resp.Message)
	}
}

func unaryHandler[Req, Resp any](method string, call func(CheckoutServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	fullMethod := "/" + checkoutServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CheckoutServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(CheckoutServer), ctx, req.(*Req))
		})
	}
}

var checkoutServiceDesc = grpc.ServiceDesc{
	ServiceName: checkoutServiceName,
	HandlerType: (*CheckoutServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddItem", Handler: unaryHandler("AddItem", CheckoutServer.AddItem)},
		{MethodName: "RemoveItem", Handler: unaryHandler("RemoveItem", CheckoutServer.RemoveItem)},
		{MethodName: "Checkout", Handler: unaryHandler("Checkout", CheckoutServer.Checkout)},
		{MethodName: "GetTicket", Handler: unaryHandler("GetTicket", CheckoutServer.GetTicket)},
	},
	Streams: []grpc.StreamDesc{},
}

// LoggingInterceptor logs every unary call with its method and status code.
func LoggingInterceptor(logger log.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		logger.WithFields(log.Fields{
			"method": info.FullMethod,
			"code":   status.Code(err).String(),
		}).Info("grpc request")
		return resp, err
	}
}
