// Package assets 는 Gartic 서비스에 내장되는 정적 리소스를 제공합니다.
package assets

import _ "embed"

// AdvanceLua: 페이즈/라운드 전이 CAS Lua 스크립트 본문입니다.
//
//go:embed lua/advance.lua
var AdvanceLua string

// GameMessagesYAML: 게임 안내/오류 메시지 카탈로그(YAML)입니다.
//
//go:embed messages/game-messages.yml
var GameMessagesYAML []byte
