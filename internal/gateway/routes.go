package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"healthcare-portal-api/internal/rpc"
)

func (g *Gateway) register(c *gin.Context) {
	var req rpc.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := g.svc.Register(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, resp)
}

func (g *Gateway) login(c *gin.Context) {
	var req rpc.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := g.svc.Login(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, resp)
}

func (g *Gateway) refresh(c *gin.Context) {
	var req rpc.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := g.svc.Refresh(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, resp)
}

func (g *Gateway) logout(c *gin.Context) {
	if _, err := g.svc.Logout(c.Request.Context(), &rpc.LogoutRequest{}); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse[any]{Message: "logged out"})
}

func (g *Gateway) listDoctors(c *gin.Context) {
	resp, err := g.svc.ListDoctors(c.Request.Context(), &rpc.ListDoctorsRequest{})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, resp.Doctors)
}

func (g *Gateway) getAvailability(c *gin.Context) {
	resp, err := g.svc.GetAvailability(c.Request.Context(), &rpc.GetAvailabilityRequest{DoctorID: c.Param("id")})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, resp)
}

func (g *Gateway) setAvailability(c *gin.Context) {
	var req rpc.SetAvailabilityRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := g.svc.SetAvailability(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, resp)
}

func (g *Gateway) book(c *gin.Context) {
	var req rpc.BookAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := g.svc.BookAppointment(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, resp.Appointment)
}

func (g *Gateway) listPatient(c *gin.Context) {
	resp, err := g.svc.ListPatientAppointments(c.Request.Context(),
		&rpc.ListPatientAppointmentsRequest{PatientID: c.Query("patientId")})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, resp.Appointments)
}

func (g *Gateway) listDoctor(c *gin.Context) {
	resp, err := g.svc.ListDoctorAppointments(c.Request.Context(),
		&rpc.ListDoctorAppointmentsRequest{DoctorID: c.Query("doctorId")})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, resp.Appointments)
}

func (g *Gateway) updateStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status"`
	}
	if !bindJSON(c, &body) {
		return
	}
	resp, err := g.svc.UpdateAppointmentStatus(c.Request.Context(),
		&rpc.UpdateStatusRequest{ID: c.Param("id"), Status: body.Status})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, resp.Appointment)
}

func (g *Gateway) cancel(c *gin.Context) {
	if _, err := g.svc.CancelAppointment(c.Request.Context(), &rpc.CancelAppointmentRequest{ID: c.Param("id")}); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse[any]{Message: "appointment cancelled"})
}
