package server

import (
	"fmt"
	"net/http"
)

// handleIndex serves a small single-page editor backed by the WebSocket API
func (s *Server) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, indexPage, s.config.Canvas.Width, s.config.Canvas.Height)
	}
}

const indexPage = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>rankgraph</title>
  <style>
    body { font-family: 'Helvetica Neue', Arial, sans-serif; margin: 0; padding: 20px; background: #f5f5f5; color: #333; }
    #canvas { background: white; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
    #menu { position: absolute; display: none; }
    .btn { background: #4285f4; color: white; border: none; padding: 6px 14px; border-radius: 4px; cursor: pointer; }
    #notice { height: 1.5em; color: #555; }
  </style>
</head>
<body>
  <div>
    <button class="btn" id="toggle">Linking</button>
    <button class="btn" id="arrange">Arrange</button>
  </div>
  <div id="notice"></div>
  <div id="canvas" style="width:%[1]gpx;height:%[2]gpx"></div>
  <button class="btn" id="menu">Add Node</button>
<script>
(async function () {
  const res = await fetch('/api/sessions', { method: 'POST' });
  const { session } = await res.json();
  const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws?session=' + session);
  const send = (ev) => ws.send(JSON.stringify(ev));
  const canvas = document.getElementById('canvas');
  const menu = document.getElementById('menu');
  let drag = null;

  ws.onmessage = async (msg) => {
    const view = JSON.parse(msg.data);
    if (view.error) { document.getElementById('notice').textContent = view.error; return; }
    if (view.notices) document.getElementById('notice').textContent = view.notices.join(', ');
    document.getElementById('toggle').textContent = view.linking ? 'Linking' : 'Unlinking';
    const svg = await fetch('/render?format=svg&session=' + session);
    canvas.innerHTML = await svg.text();
    if (view.pending_spawn) {
      menu.style.left = (canvas.offsetLeft + view.pending_spawn.x) + 'px';
      menu.style.top = (canvas.offsetTop + view.pending_spawn.y) + 'px';
      menu.style.display = 'block';
    } else {
      menu.style.display = 'none';
    }
  };

  const point = (e) => ({ x: e.offsetX, y: e.offsetY });
  canvas.addEventListener('click', (e) => {
    const id = e.target.dataset && e.target.dataset.id;
    if (id !== undefined) send({ type: 'primary_click', node: Number(id) });
    else send({ type: 'background_click' });
  });
  canvas.addEventListener('dblclick', (e) => {
    const id = e.target.dataset && e.target.dataset.id;
    if (id !== undefined) send({ type: 'double_click', node: Number(id) });
  });
  canvas.addEventListener('contextmenu', (e) => {
    e.preventDefault();
    if (!(e.target.dataset && e.target.dataset.id)) send(Object.assign({ type: 'secondary_click' }, point(e)));
  });
  canvas.addEventListener('mousedown', (e) => {
    const id = e.target.dataset && e.target.dataset.id;
    if (id !== undefined && e.shiftKey) drag = Number(id);
  });
  canvas.addEventListener('mouseup', (e) => {
    if (drag !== null) send(Object.assign({ type: 'drag_move', node: drag }, point(e)));
    drag = null;
  });
  menu.addEventListener('click', () => send({ type: 'add_node' }));
  document.getElementById('toggle').addEventListener('click', () => send({ type: 'toggle_linking' }));
  document.getElementById('arrange').addEventListener('click', () => send({ type: 'arrange' }));
})();
</script>
</body>
</html>
`
