package gift

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"

	"github.com/giftify/giftapi/common/model"
)

// GetMember fetches another member's public profile.
func (s *giftService) GetMember(ctx context.Context, token *oauth2.Token, memberID string) (*model.MemberPublic, error) {
	var member model.MemberPublic
	if err := s.client.GetJSONFresh(ctx, fmt.Sprintf("api/v2/members/%s", memberID), &member, token, nil); err != nil {
		return nil, err
	}
	return &member, nil
}

// UpdateMember patches the caller's profile fields.
func (s *giftService) UpdateMember(ctx context.Context, token *oauth2.Token, memberID string, req model.MemberUpdateRequest) (*model.Member, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	data, err := s.client.PatchJSON(ctx, fmt.Sprintf("api/v2/members/%s", memberID), token, body, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var member model.Member
	if err := model.JSONUnmarshal(data, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// SignupMember registers a profile for a freshly authenticated account.
func (s *giftService) SignupMember(ctx context.Context, token *oauth2.Token, req model.MemberUpdateRequest) (*model.Member, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	data, err := s.client.PostJSON(ctx, "api/v2/members/signup", token, body, http.StatusOK, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	var member model.Member
	if err := model.JSONUnmarshal(data, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// GetMemberFriends fetches a page of the member's friends.
func (s *giftService) GetMemberFriends(ctx context.Context, token *oauth2.Token, memberID string, page, size int) (*model.MemberListResponse, error) {
	params := map[string]string{}
	if page >= 0 {
		params["page"] = strconv.Itoa(page)
	}
	if size > 0 {
		params["size"] = strconv.Itoa(size)
	}
	var resp model.MemberListResponse
	if err := s.client.GetJSONFresh(ctx, fmt.Sprintf("api/v2/members/%s/friends", memberID), &resp, token, params); err != nil {
		return nil, err
	}
	return &resp, nil
}
