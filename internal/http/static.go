package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterStatic wires a tiny inline HTML page at GET "/".
func RegisterStatic(r *gin.Engine) {
	const page = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width,initial-scale=1"/>
<title>linkreg</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;padding:2rem;background:#0b0b0c;color:#e8e8ea}
.container{max-width:680px;margin:0 auto}
.card{background:#151517;border:1px solid #2b2b2f;border-radius:12px;padding:1.25rem;margin-bottom:1rem}
h1{font-size:1.25rem;margin:0 0 1rem}
input,button,select{font-size:1rem}
input[type=text],input[type=number]{width:100%;box-sizing:border-box;padding:.6rem;border-radius:8px;border:1px solid #2b2b2f;background:#0f0f11;color:#e8e8ea;margin-top:.5rem}
button{padding:.6rem 1rem;border:1px solid #2b2b2f;background:#1f1f23;color:#e8e8ea;border-radius:8px;cursor:pointer;margin-top:.5rem}
pre{white-space:pre-wrap;word-break:break-word;background:#0f0f11;border:1px solid #2b2b2f;border-radius:8px;padding:.75rem}
</style>
</head>
<body>
<div class="container">
  <div class="card">
    <h1>linkreg: who are you?</h1>
    <input id="uid" type="text" placeholder="your user id (uuid)"/>
    <button id="register">Register new id</button>
    <button id="list">List my links</button>
  </div>
  <div class="card">
    <h1>New link</h1>
    <input id="url" type="text" placeholder="example.com/very/long/link"/>
    <input id="uses" type="number" min="1" value="1"/>
    <select id="ttl">
      <option value="5m">5 minutes</option><option value="30m">30 minutes</option>
      <option value="60m">60 minutes</option><option value="168h">1 week</option>
      <option value="720h">1 month</option><option value="" selected>unlimited</option>
    </select>
    <button id="go">Shorten</button>
  </div>
  <div id="out"></div>
</div>
<script>
const $ = id => document.getElementById(id);
const show = data => { $('out').innerHTML = '<pre>'+JSON.stringify(data,null,2)+'</pre>'; };
async function call(method, path, body){
  const res = await fetch(path, {method, headers:{'Content-Type':'application/json'}, body: body && JSON.stringify(body)});
  return res.json().catch(()=>({status:res.status}));
}
$('register').onclick = async () => { const d = await call('POST', '/api/users'); if(d.id) $('uid').value = d.id; show(d); };
$('list').onclick = async () => show(await call('GET', '/api/users/'+$('uid').value.trim()+'/links'));
$('go').onclick = async () => {
  const body = {url: $('url').value.trim(), max_uses: parseInt($('uses').value, 10)};
  if($('ttl').value) body.ttl = $('ttl').value;
  show(await call('POST', '/api/users/'+$('uid').value.trim()+'/links', body));
};
</script>
</body>
</html>`
	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
	})
}
