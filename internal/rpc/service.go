// Package rpc is the ScheduleService wire contract: request and response
// messages, the gRPC service descriptor and a client. Messages travel as
// JSON (see Codec).
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "healthcare.v1.ScheduleService"

// FullMethod returns the gRPC method path for name.
func FullMethod(name string) string { return "/" + ServiceName + "/" + name }

type ScheduleServiceServer interface {
	Register(context.Context, *RegisterRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	Refresh(context.Context, *RefreshRequest) (*AuthResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)

	ListDoctors(context.Context, *ListDoctorsRequest) (*ListDoctorsResponse, error)
	GetAvailability(context.Context, *GetAvailabilityRequest) (*AvailabilityResponse, error)
	SetAvailability(context.Context, *SetAvailabilityRequest) (*AvailabilityResponse, error)

	BookAppointment(context.Context, *BookAppointmentRequest) (*AppointmentResponse, error)
	ListPatientAppointments(context.Context, *ListPatientAppointmentsRequest) (*ListAppointmentsResponse, error)
	ListDoctorAppointments(context.Context, *ListDoctorAppointmentsRequest) (*ListAppointmentsResponse, error)
	UpdateAppointmentStatus(context.Context, *UpdateStatusRequest) (*AppointmentResponse, error)
	CancelAppointment(context.Context, *CancelAppointmentRequest) (*CancelAppointmentResponse, error)
}

// UnimplementedScheduleServiceServer answers Unimplemented for every method.
type UnimplementedScheduleServiceServer struct{}

func unimplemented(m string) error { return status.Errorf(codes.Unimplemented, "method %s not implemented", m) }

func (UnimplementedScheduleServiceServer) Register(context.Context, *RegisterRequest) (*AuthResponse, error) {
	return nil, unimplemented("Register")
}
func (UnimplementedScheduleServiceServer) Login(context.Context, *LoginRequest) (*AuthResponse, error) {
	return nil, unimplemented("Login")
}
func (UnimplementedScheduleServiceServer) Refresh(context.Context, *RefreshRequest) (*AuthResponse, error) {
	return nil, unimplemented("Refresh")
}
func (UnimplementedScheduleServiceServer) Logout(context.Context, *LogoutRequest) (*LogoutResponse, error) {
	return nil, unimplemented("Logout")
}
func (UnimplementedScheduleServiceServer) ListDoctors(context.Context, *ListDoctorsRequest) (*ListDoctorsResponse, error) {
	return nil, unimplemented("ListDoctors")
}
func (UnimplementedScheduleServiceServer) GetAvailability(context.Context, *GetAvailabilityRequest) (*AvailabilityResponse, error) {
	return nil, unimplemented("GetAvailability")
}
func (UnimplementedScheduleServiceServer) SetAvailability(context.Context, *SetAvailabilityRequest) (*AvailabilityResponse, error) {
	return nil, unimplemented("SetAvailability")
}
func (UnimplementedScheduleServiceServer) BookAppointment(context.Context, *BookAppointmentRequest) (*AppointmentResponse, error) {
	return nil, unimplemented("BookAppointment")
}
func (UnimplementedScheduleServiceServer) ListPatientAppointments(context.Context, *ListPatientAppointmentsRequest) (*ListAppointmentsResponse, error) {
	return nil, unimplemented("ListPatientAppointments")
}
func (UnimplementedScheduleServiceServer) ListDoctorAppointments(context.Context, *ListDoctorAppointmentsRequest) (*ListAppointmentsResponse, error) {
	return nil, unimplemented("ListDoctorAppointments")
}
func (UnimplementedScheduleServiceServer) UpdateAppointmentStatus(context.Context, *UpdateStatusRequest) (*AppointmentResponse, error) {
	return nil, unimplemented("UpdateAppointmentStatus")
}
func (UnimplementedScheduleServiceServer) CancelAppointment(context.Context, *CancelAppointmentRequest) (*CancelAppointmentResponse, error) {
	return nil, unimplemented("CancelAppointment")
}

func unary[Req, Resp any](name string, call func(ScheduleServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(ScheduleServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

var ScheduleServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScheduleServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", ScheduleServiceServer.Register),
		unary("Login", ScheduleServiceServer.Login),
		unary("Refresh", ScheduleServiceServer.Refresh),
		unary("Logout", ScheduleServiceServer.Logout),
		unary("ListDoctors", ScheduleServiceServer.ListDoctors),
		unary("GetAvailability", ScheduleServiceServer.GetAvailability),
		unary("SetAvailability", ScheduleServiceServer.SetAvailability),
		unary("BookAppointment", ScheduleServiceServer.BookAppointment),
		unary("ListPatientAppointments", ScheduleServiceServer.ListPatientAppointments),
		unary("ListDoctorAppointments", ScheduleServiceServer.ListDoctorAppointments),
		unary("UpdateAppointmentStatus", ScheduleServiceServer.UpdateAppointmentStatus),
		unary("CancelAppointment", ScheduleServiceServer.CancelAppointment),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "healthcare/v1/schedule.json",
}

func RegisterScheduleServiceServer(s grpc.ServiceRegistrar, srv ScheduleServiceServer) {
	s.RegisterService(&ScheduleServiceDesc, srv)
}

// Client calls ScheduleService over a connection, encoding with Codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, name string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, "Register", in, opts)
}
func (c *Client) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, "Login", in, opts)
}
func (c *Client) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, "Refresh", in, opts)
}
func (c *Client) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*LogoutResponse, error) {
	return invoke[LogoutResponse](ctx, c.cc, "Logout", in, opts)
}
func (c *Client) ListDoctors(ctx context.Context, in *ListDoctorsRequest, opts ...grpc.CallOption) (*ListDoctorsResponse, error) {
	return invoke[ListDoctorsResponse](ctx, c.cc, "ListDoctors", in, opts)
}
func (c *Client) GetAvailability(ctx context.Context, in *GetAvailabilityRequest, opts ...grpc.CallOption) (*AvailabilityResponse, error) {
	return invoke[AvailabilityResponse](ctx, c.cc, "GetAvailability", in, opts)
}
func (c *Client) SetAvailability(ctx context.Context, in *SetAvailabilityRequest, opts ...grpc.CallOption) (*AvailabilityResponse, error) {
	return invoke[AvailabilityResponse](ctx, c.cc, "SetAvailability", in, opts)
}
func (c *Client) BookAppointment(ctx context.Context, in *BookAppointmentRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, "BookAppointment", in, opts)
}
func (c *Client) ListPatientAppointments(ctx context.Context, in *ListPatientAppointmentsRequest, opts ...grpc.CallOption) (*ListAppointmentsResponse, error) {
	return invoke[ListAppointmentsResponse](ctx, c.cc, "ListPatientAppointments", in, opts)
}
func (c *Client) ListDoctorAppointments(ctx context.Context, in *ListDoctorAppointmentsRequest, opts ...grpc.CallOption) (*ListAppointmentsResponse, error) {
	return invoke[ListAppointmentsResponse](ctx, c.cc, "ListDoctorAppointments", in, opts)
}
func (c *Client) UpdateAppointmentStatus(ctx context.Context, in *UpdateStatusRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, "UpdateAppointmentStatus", in, opts)
}
func (c *Client) CancelAppointment(ctx context.Context, in *CancelAppointmentRequest, opts ...grpc.CallOption) (*CancelAppointmentResponse, error) {
	return invoke[CancelAppointmentResponse](ctx, c.cc, "CancelAppointment", in, opts)
}
