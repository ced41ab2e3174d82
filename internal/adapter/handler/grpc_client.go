package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// CheckoutClient calls pos.v1.Checkout over a connection using the JSON codec.
type CheckoutClient struct {
	cc grpc.ClientConnInterface
}

func NewCheckoutClient(cc grpc.ClientConnInterface) *CheckoutClient {
	return &CheckoutClient{cc: cc}
}

// WithUserID attaches the caller identity to an outgoing context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, userIDMetadata, userID)
}

func (c *CheckoutClient) AddItem(ctx context.Context, in *AddItemRPCRequest, opts ...grpc.CallOption) (*CartRPCResponse, error) {
	out := new(CartRPCResponse)
	if err := c.invoke(ctx, "AddItem", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CheckoutClient) RemoveItem(ctx context.Context, in *RemoveItemRPCRequest, opts ...grpc.CallOption) (*CartRPCResponse, error) {
	out := new(CartRPCResponse)
	if err := c.invoke(ctx, "RemoveItem", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CheckoutClient) Checkout(ctx context.Context, in *CheckoutRPCRequest, opts ...grpc.CallOption) (*CheckoutRPCResponse, error) {
	out := new(CheckoutRPCResponse)
	if err := c.invoke(ctx, "Checkout", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CheckoutClient) GetTicket(ctx context.Context, in *GetTicketRPCRequest, opts ...grpc.CallOption) (*TicketRPCResponse, error) {
	out := new(TicketRPCResponse)
	if err := c.invoke(ctx, "GetTicket", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CheckoutClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+checkoutServiceName+"/"+method, in, out, opts...)
}
